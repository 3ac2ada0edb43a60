package promptaudit

import "strings"

// DefaultStandards is appended to prompts that carry no standards block.
const DefaultStandards = "### Coding Standards (Auto-appended)\n" +
	"- Use double quotes for strings (not single quotes)\n" +
	"- Use semicolons at end of statements\n" +
	"- Use 2-space indentation\n" +
	"- No console.log (use proper logging or remove)\n" +
	"- No debugger statements\n" +
	"- Use async/await over .then() chains\n" +
	"- Destructure props: `const { prop1, prop2 } = props`\n" +
	"- Use functional components with hooks (no class components)\n" +
	"- Follow existing file patterns - check similar files first\n" +
	"- MUI v7 patterns: use `sx` prop, not `makeStyles`\n"

// HasStandards reports whether prompt already mentions coding standards.
func HasStandards(prompt string) bool {
	return strings.Contains(prompt, "Coding Standards") || strings.Contains(prompt, "coding standards")
}

// AppendStandards returns prompt followed by a blank line and standards,
// or prompt unchanged when it already has a standards block.
func AppendStandards(prompt, standards string) string {
	if HasStandards(prompt) || strings.TrimSpace(standards) == "" {
		return prompt
	}
	return prompt + "\n\n" + standards
}
