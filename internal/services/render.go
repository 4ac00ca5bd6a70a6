package services

import "regexp"

var templateVarRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders with vars[name]. Unknown
// placeholders render empty, which is how the stored prompts expect optional
// variables to behave. Output is plain prompt text, never HTML, so no
// escaping is applied.
func RenderTemplate(template string, vars map[string]string) string {
	return templateVarRe.ReplaceAllStringFunc(template, func(m string) string {
		name := templateVarRe.FindStringSubmatch(m)[1]
		return vars[name]
	})
}
