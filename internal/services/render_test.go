package services

import "testing"

func TestRenderTemplateSubstitutesVariables(t *testing.T) {
	tpl := "Analyse the following report for {{pattern}}:\n\n{{ contextText }}"
	out := RenderTemplate(tpl, map[string]string{
		"pattern":     "judgemental language",
		"contextText": "The suspect was seen nearby.",
	})

	want := "Analyse the following report for judgemental language:\n\nThe suspect was seen nearby."
	if out != want {
		t.Fatalf("RenderTemplate: want=%q got=%q", want, out)
	}
}

func TestRenderTemplateUnknownVariableRendersEmpty(t *testing.T) {
	out := RenderTemplate("before {{missing}} after", map[string]string{})
	if out != "before  after" {
		t.Fatalf("RenderTemplate: got=%q", out)
	}
}

func TestRenderTemplateLeavesNonPlaceholderBracesAlone(t *testing.T) {
	tpl := `Return JSON like {"analysis_results": []} for {{phrase}}`
	out := RenderTemplate(tpl, map[string]string{"phrase": "he seemed agitated"})
	want := `Return JSON like {"analysis_results": []} for he seemed agitated`
	if out != want {
		t.Fatalf("RenderTemplate: want=%q got=%q", want, out)
	}
}
