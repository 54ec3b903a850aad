// Package vision wraps the Gemini generateContent API for the two
// structured-output collaborators the kiosk depends on: ID document
// extraction and product recommendation.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the vision/text model used for extraction and
// recommendations.
const DefaultModel = "gemini-2.0-flash"

// ExtractedID is the structured result of analyzing an identity document
// image. Field names match the JSON contract the model is instructed to
// produce.
type ExtractedID struct {
	DocumentType    string   `json:"document_type"`
	DocumentNumber  string   `json:"document_number"`
	FullName        string   `json:"full_name"`
	DateOfBirth     string   `json:"date_of_birth"`
	Gender          string   `json:"gender"`
	Address         string   `json:"address"`
	IssueDate       string   `json:"issue_date"`
	ExpiryDate      string   `json:"expiry_date"`
	IsFront         bool     `json:"is_front"`
	IsBack          bool     `json:"is_back"`
	ImageQuality    string   `json:"image_quality"`
	IsLegitimate    bool     `json:"is_legitimate"`
	ConfidenceScore float64  `json:"confidence_score"`
	Issues          []string `json:"issues"`
	RawText         string   `json:"raw_text"`
}

// CatalogProduct is the slice of a bank product the recommendation prompt
// needs. The gateway maps store products into this shape.
type CatalogProduct struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Description      string `json:"description"`
	EligibilityRules string `json:"eligibilityRules"`
	Features         string `json:"features"`
}

// Recommendation is one ranked product suggestion.
type Recommendation struct {
	ProductID           string `json:"product_id"`
	ProductName         string `json:"product_name"`
	Reason              string `json:"reason"`
	Eligible            bool   `json:"eligible"`
	IneligibilityReason string `json:"ineligibility_reason,omitempty"`
}

// ParseError preserves the raw model response alongside the decode failure
// so operators can inspect what actually came back.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v (raw: %.200q)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Client calls Gemini generateContent for structured extraction tasks.
type Client struct {
	genai  *genai.Client
	model  string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the model identity.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a vision client authenticated with the given API key.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c := &Client{genai: gc, model: DefaultModel, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExtractID analyzes an identity document image and returns the structured
// extraction. Parse failures are returned as a *ParseError carrying the raw
// response and are never retried here.
func (c *Client) ExtractID(ctx context.Context, image []byte, mimeType string) (*ExtractedID, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: idExtractionPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("id extraction request: %w", err)
	}

	raw := resp.Text()
	out, err := DecodeExtraction(raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeExtraction parses the model's extraction JSON, tolerating markdown
// code fences around the object.
func DecodeExtraction(raw string) (*ExtractedID, error) {
	var out ExtractedID
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return &out, nil
}

// RecommendProducts asks the model to rank catalog products for a customer
// profile. An unparseable response degrades to a deterministic default
// (the first products in catalog order) instead of blocking the flow.
func (c *Client) RecommendProducts(ctx context.Context, profile map[string]string, catalog []CatalogProduct) ([]Recommendation, error) {
	prompt, err := buildRecommendationPrompt(profile, catalog)
	if err != nil {
		return nil, fmt.Errorf("build recommendation prompt: %w", err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: 800,
	})
	if err != nil {
		return nil, fmt.Errorf("recommendation request: %w", err)
	}

	recs, err := DecodeRecommendations(resp.Text())
	if err != nil {
		c.logger.Warn("recommendation response unparseable, using defaults", "err", err)
		return DefaultRecommendations(catalog), nil
	}
	return recs, nil
}

// DecodeRecommendations parses the model's recommendation JSON.
func DecodeRecommendations(raw string) ([]Recommendation, error) {
	var out struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if len(out.Recommendations) == 0 {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no recommendations in response")}
	}
	return out.Recommendations, nil
}

// DefaultRecommendations is the deterministic fallback: the first products
// in catalog order, capped at three.
func DefaultRecommendations(catalog []CatalogProduct) []Recommendation {
	recs := make([]Recommendation, 0, 3)
	for _, p := range catalog {
		if len(recs) == 3 {
			break
		}
		recs = append(recs, Recommendation{
			ProductID:   p.ID,
			ProductName: p.Name,
			Reason:      "A popular choice for new customers.",
			Eligible:    true,
		})
	}
	return recs
}

// stripFences removes a surrounding markdown code fence, which the model
// sometimes wraps around JSON despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
