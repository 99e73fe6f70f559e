package types

// ConvertRequest carries the /convert form fields. Code may instead arrive as
// an uploaded file, so none of the fields are bound as required.
type ConvertRequest struct {
	SourceLanguage string `form:"source_lang" json:"source_lang"`
	TargetLanguage string `form:"target_lang" json:"target_lang"`
	Code           string `form:"code" json:"code"`
}

type ConvertResponse struct {
	ConvertedCode string `json:"converted_code"`
}

type ReviewRequest struct {
	Code string `json:"code"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
