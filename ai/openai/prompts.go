package openai

import "fmt"

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "winery_name": {"type": "string", "minLength": 1},
    "wine_name": {"type": "string", "minLength": 1},
    "varietal": {"type": "string"},
    "year": {"type": "integer", "minimum": 1800, "maximum": 2100},
    "region": {"type": "string"},
    "country": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["winery_name", "wine_name", "confidence"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `You are reading a photograph of a wine bottle label. Extract the fields printed
on the label and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- winery_name is the producer or estate name, wine_name is the cuvée or bottling name. Both are required.
- Omit year entirely for non-vintage bottles; never guess a year that is not printed.
- varietal is the grape variety if the label names exactly one; leave it out for unnamed blends.
- region is the appellation or growing region as printed; country is the country of origin.
- confidence is your own estimate, between 0 and 1, of how reliable the whole reading is. Lower it for
  blurry text, partial labels, or fields you inferred rather than read.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example (full label):
Label shows: "VILLA OLIVEIRA / Reserva / Dão / 2017 / Produto de Portugal"
Output:
{
  "winery_name": "Villa Oliveira",
  "wine_name": "Reserva",
  "year": 2017,
  "region": "Dão",
  "country": "Portugal",
  "confidence": 0.95
}

Example (non-vintage sparkling, no region printed):
Label shows: "Maison Caillou / Brut / Champagne"
Output:
{
  "winery_name": "Maison Caillou",
  "wine_name": "Brut",
  "region": "Champagne",
  "country": "France",
  "confidence": 0.85
}

Example (single varietal, partially blurred year):
Label shows: "Cerro Alto / Malbec / Mendoza / 20??"
Output:
{
  "winery_name": "Cerro Alto",
  "wine_name": "Malbec",
  "varietal": "Malbec",
  "region": "Mendoza",
  "country": "Argentina",
  "confidence": 0.6
}`

// extractionSystemPrompt creates the system prompt with the response schema
// embedded.
func extractionSystemPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate, extractionResponseSchema)
}

const enrichmentResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "type": {"type": "string", "enum": ["still", "sparkling", "fortified", "dessert"]},
    "color": {"type": "string", "enum": ["red", "white", "rosé", "orange"]},
    "style": {"type": "string"},
    "food_pairings": {"type": "array", "items": {"type": "string"}},
    "varietals": {"type": "array", "items": {"type": "string"}}
  },
  "additionalProperties": false
}`

const enrichmentPromptTemplate = `You are a wine reference. Given a producer, wine name and optional vintage,
return what you know about the wine as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Include only fields you are confident about; omit anything you would have to guess.
- style is a short descriptor such as "full-bodied", "crisp", "off-dry".
- food_pairings lists at most five dishes.
- varietals lists grape varieties in the blend, most dominant first.
- If you do not recognize the wine at all, return {}.

Example:
Input:
Producer: Villa Oliveira
Wine: Reserva
Vintage: 2017
Output:
{
  "type": "still",
  "color": "red",
  "style": "full-bodied",
  "food_pairings": ["roast lamb", "aged hard cheese"],
  "varietals": ["Touriga Nacional", "Tinta Roriz"]
}`

// enrichmentSystemPrompt creates the system prompt with the response schema
// embedded.
func enrichmentSystemPrompt() string {
	return fmt.Sprintf(enrichmentPromptTemplate, enrichmentResponseSchema)
}
