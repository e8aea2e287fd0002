package enrich

type promptData struct {
	Text           string
	Profile        string
	ScoringContext string
}

const promptTemplate = `You are analyzing a job listing for a specific candidate.
Extract the following information and answer with a single JSON object, no other text.

Job listing:
{{.Text}}

Answer with exactly this schema:
{
    "normalized_title": "canonical job title, e.g. 'Data Engineer' or 'Senior Data Scientist'",
    "remote": "remote | hybrid | onsite | unknown",
    "contract_type": "permanent | freelance | internship | unknown",
    "seniority": "junior | mid | senior | lead | unknown",
    "tech_stack": ["list", "of", "technologies"],
    "summary": "2-3 sentence summary of the role",
    "fit_score": 1
}

fit_score scale (1-5) relative to this candidate:
{{.Profile}}
{{if .ScoringContext}}
Additional scoring context for this search:
{{.ScoringContext}}
{{end}}
1 = very poor fit, 5 = excellent fit.`
