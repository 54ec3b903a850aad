package vision

import (
	"encoding/json"
	"fmt"
)

// idExtractionPrompt instructs the model to analyze a Sri Lankan identity
// document and respond with the ExtractedID JSON object, nothing else.
const idExtractionPrompt = `You are an expert document analyzer for a banking KYC system in Sri Lanka.

Analyze the provided image of an identity document and extract all available information.

## DOCUMENT TYPES YOU RECOGNIZE:
1. Sri Lankan NIC (Old format: 9 digits + V/X, e.g., 901234567V)
2. Sri Lankan NIC (New format: 12 digits, e.g., 199012345678)
3. Sri Lankan Passport
4. Sri Lankan Driver's License

## WHAT TO EXTRACT:
Return a JSON object with these fields (use null for fields not found):

{
  "document_type": "nic_old" | "nic_new" | "passport" | "drivers_license" | "unknown",
  "document_number": "string",
  "full_name": "string",
  "date_of_birth": "YYYY-MM-DD",
  "gender": "male" | "female",
  "address": "string",
  "issue_date": "YYYY-MM-DD",
  "expiry_date": "YYYY-MM-DD",
  "is_front": true | false,
  "is_back": true | false,
  "image_quality": "good" | "fair" | "poor",
  "is_legitimate": true | false,
  "confidence_score": 0.0 to 1.0,
  "issues": ["list of any problems detected"],
  "raw_text": "all visible text on the document"
}

## VALIDATION RULES:
- Old NIC: 9 digits + V or X. First 2 digits = birth year (add 1900). Next 3 digits = day of year (add 500 for female). Calculate DOB from this.
- New NIC: 12 digits. First 4 = birth year. Next 3 = day of year (add 500 for female).
- Check if the document structure looks legitimate (correct layout, expected fields present, government markings visible)
- Flag if image is blurry, partially cut off, or appears tampered with
- Flag if document appears to be a photocopy or photo of a screen

## RESPOND ONLY WITH THE JSON OBJECT. NO OTHER TEXT.`

// buildRecommendationPrompt renders the customer profile and catalog into
// the recommendation instruction.
func buildRecommendationPrompt(profile map[string]string, catalog []CatalogProduct) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", err
	}
	catalogJSON, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a product recommendation engine for a Sri Lankan bank.

Given a customer's profile, recommend the most suitable banking products from the available catalog.

## CUSTOMER PROFILE:
%s

## AVAILABLE PRODUCTS:
%s

## RULES:
- Check eligibility rules for each product against the customer's profile
- Rank products by relevance (most suitable first)
- Provide a brief, conversational reason for each recommendation
- If the customer is ineligible for a product, explain why kindly
- Recommend 2-3 products maximum
- Consider: age, income, occupation, and any stated preferences

## RESPOND WITH JSON:
{
  "recommendations": [
    {
      "product_id": "string",
      "product_name": "string",
      "reason": "Brief conversational reason why this suits them",
      "eligible": true | false,
      "ineligibility_reason": "Only if not eligible"
    }
  ]
}`, profileJSON, catalogJSON), nil
}
