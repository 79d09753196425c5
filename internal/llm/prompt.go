package llm

import (
	"strings"
)

const maxOrderText = 4000

// BuildSystemPrompt tells the model which products exist and how to answer.
// Product names are listed verbatim so the model copies them instead of paraphrasing.
func BuildSystemPrompt(req ExtractRequest) string {
	parts := []string{
		"You read customer orders for pergolas, awnings and screens. Return ONLY JSON that matches the provided JSON Schema.",
		"For every item the customer wants, output one entry in 'items'.",
		"'product' MUST be copied exactly from this product list: " + productList(req.Products) + ".",
		"'width_mm' and 'height_mm' are millimetres as plain numbers. Convert centimetres and metres (3,5 m -> 3500).",
		"If the text gives a dimension as a calculation (e.g. 3590-240), you may output the expression as a string.",
		"Omit 'height_mm' when the customer gave no height or depth.",
		"'place' is the delivery town or address if mentioned, otherwise omit it.",
		"If no product from the list is mentioned, return {\"not_found\": true, \"message\": \"<short explanation in Czech>\"}.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the order text; very long texts are truncated.
func BuildUserPrompt(req ExtractRequest) string {
	text := strings.TrimSpace(req.Text)

	var b strings.Builder
	b.WriteString("Order text:\n")
	if r := []rune(text); len(r) > maxOrderText {
		b.WriteString(string(r[:maxOrderText]))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

func productList(names []string) string {
	if len(names) == 0 {
		return "(empty)"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, ", ")
}
