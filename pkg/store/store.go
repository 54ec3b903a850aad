// Package store persists applications, products, flows, and settings in
// PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/banki-go/banki/pkg/kiosk"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store is a PostgreSQL-backed store. It implements kiosk.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ kiosk.Store = (*Store)(nil)

// New connects to the database and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// SaveApplication upserts one application snapshot keyed by session id.
func (s *Store) SaveApplication(ctx context.Context, rec kiosk.Record) error {
	selected, err := json.Marshal(rec.SelectedProducts)
	if err != nil {
		return fmt.Errorf("encode selected products: %w", err)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO applications (
			id, customer_id, status, step, language,
			full_name, date_of_birth, gender, phone, email, address, occupation, monthly_income,
			id_number, id_document_type, id_confidence,
			liveness_pass, face_match_score,
			selected_products, transcript, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			step = EXCLUDED.step,
			language = EXCLUDED.language,
			full_name = EXCLUDED.full_name,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			occupation = EXCLUDED.occupation,
			monthly_income = EXCLUDED.monthly_income,
			id_number = EXCLUDED.id_number,
			id_document_type = EXCLUDED.id_document_type,
			id_confidence = EXCLUDED.id_confidence,
			liveness_pass = EXCLUDED.liveness_pass,
			face_match_score = EXCLUDED.face_match_score,
			selected_products = EXCLUDED.selected_products,
			transcript = EXCLUDED.transcript,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.CustomerID, rec.Status, string(rec.Step), rec.Language,
		rec.Personal.FullName, rec.Personal.DateOfBirth, rec.Personal.Gender,
		rec.Personal.Phone, rec.Personal.Email, rec.Personal.Address,
		rec.Personal.Occupation, rec.Personal.MonthlyIncome,
		rec.IDNumber, rec.IDDocumentType, rec.IDConfidence,
		rec.LivenessPass, rec.FaceMatchScore,
		selected, transcript, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save application %s: %w", rec.ID, err)
	}
	return nil
}

// GetApplication fetches one application by session id.
func (s *Store) GetApplication(ctx context.Context, id string) (*kiosk.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, status, step, language,
			full_name, date_of_birth, gender, phone, email, address, occupation, monthly_income,
			id_number, id_document_type, id_confidence,
			liveness_pass, face_match_score,
			selected_products, transcript, created_at, updated_at
		FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// ListApplications returns applications newest first, optionally filtered
// by status.
func (s *Store) ListApplications(ctx context.Context, status string) ([]kiosk.Record, error) {
	query := `
		SELECT id, customer_id, status, step, language,
			full_name, date_of_birth, gender, phone, email, address, occupation, monthly_income,
			id_number, id_document_type, id_confidence,
			liveness_pass, face_match_score,
			selected_products, transcript, created_at, updated_at
		FROM applications`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []kiosk.Record
	for rows.Next() {
		rec, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanApplication(row pgx.Row) (*kiosk.Record, error) {
	var (
		rec        kiosk.Record
		step       string
		selected   []byte
		transcript []byte
	)
	err := row.Scan(
		&rec.ID, &rec.CustomerID, &rec.Status, &step, &rec.Language,
		&rec.Personal.FullName, &rec.Personal.DateOfBirth, &rec.Personal.Gender,
		&rec.Personal.Phone, &rec.Personal.Email, &rec.Personal.Address,
		&rec.Personal.Occupation, &rec.Personal.MonthlyIncome,
		&rec.IDNumber, &rec.IDDocumentType, &rec.IDConfidence,
		&rec.LivenessPass, &rec.FaceMatchScore,
		&selected, &transcript, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	rec.Step = kiosk.Step(step)
	if err := json.Unmarshal(selected, &rec.SelectedProducts); err != nil {
		return nil, fmt.Errorf("decode selected products: %w", err)
	}
	if err := json.Unmarshal(transcript, &rec.Transcript); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &rec, nil
}

// Product is one bank product in the catalog.
type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Description      string          `json:"description"`
	Features         json.RawMessage `json:"features"`
	InterestRate     *float64        `json:"interestRate"`
	EligibilityRules json.RawMessage `json:"eligibilityRules"`
	TermsConditions  string          `json:"termsConditions"`
	IsActive         bool            `json:"isActive"`
	DisplayOrder     int             `json:"displayOrder"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ListProducts returns products by display order. When activeOnly is set,
// inactive products are filtered out.
func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	query := `
		SELECT id, name, type, description, features, interest_rate,
			eligibility_rules, terms_conditions, is_active, display_order,
			created_at, updated_at
		FROM products`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Type, &p.Description, &p.Features, &p.InterestRate,
			&p.EligibilityRules, &p.TermsConditions, &p.IsActive, &p.DisplayOrder,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProduct inserts or updates a product.
func (s *Store) UpsertProduct(ctx context.Context, p Product) error {
	now := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (
			id, name, type, description, features, interest_rate,
			eligibility_rules, terms_conditions, is_active, display_order,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			interest_rate = EXCLUDED.interest_rate,
			eligibility_rules = EXCLUDED.eligibility_rules,
			terms_conditions = EXCLUDED.terms_conditions,
			is_active = EXCLUDED.is_active,
			display_order = EXCLUDED.display_order,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Type, p.Description, p.Features, p.InterestRate,
		p.EligibilityRules, p.TermsConditions, p.IsActive, p.DisplayOrder, now,
	)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Flow is a designed conversation flow (node graph) for the kiosk.
type Flow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Nodes       json.RawMessage `json:"nodes"`
	Edges       json.RawMessage `json:"edges"`
	IsPublished bool            `json:"isPublished"`
	IsTemplate  bool            `json:"isTemplate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ListFlows returns all flows, newest first.
func (s *Store) ListFlows(ctx context.Context) ([]Flow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, nodes, edges, is_published, is_template,
			created_at, updated_at
		FROM flows ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var out []Flow
	for rows.Next() {
		var f Flow
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Description, &f.Nodes, &f.Edges,
			&f.IsPublished, &f.IsTemplate, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertFlow inserts or updates a flow.
func (s *Store) UpsertFlow(ctx context.Context, f Flow) error {
	now := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO flows (
			id, name, description, nodes, edges, is_published, is_template,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			is_published = EXCLUDED.is_published,
			is_template = EXCLUDED.is_template,
			updated_at = EXCLUDED.updated_at`,
		f.ID, f.Name, f.Description, f.Nodes, f.Edges, f.IsPublished, f.IsTemplate, now,
	)
	if err != nil {
		return fmt.Errorf("upsert flow %s: %w", f.ID, err)
	}
	return nil
}

// DeleteFlow removes a flow.
func (s *Store) DeleteFlow(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flow %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Settings is the singleton kiosk configuration row.
type Settings struct {
	ID                 string    `json:"id"`
	BankName           string    `json:"bankName"`
	GeminiAPIKey       string    `json:"geminiApiKey"`
	FaceMatchThreshold float64   `json:"faceMatchThreshold"`
	PrimaryColor       string    `json:"primaryColor"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

const settingsID = "default"

// GetSettings returns the settings row, creating the default row when it
// does not exist yet.
func (s *Store) GetSettings(ctx context.Context) (*Settings, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO settings (id, bank_name, gemini_api_key, face_match_threshold, primary_color, updated_at)
		VALUES ($1, 'Demo Bank', '', 0.85, '06B6D4', now())
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, bank_name, gemini_api_key, face_match_threshold, primary_color, updated_at`,
		settingsID)

	var st Settings
	if err := row.Scan(&st.ID, &st.BankName, &st.GeminiAPIKey, &st.FaceMatchThreshold, &st.PrimaryColor, &st.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &st, nil
}

// UpdateSettings upserts the settings row.
func (s *Store) UpdateSettings(ctx context.Context, st Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (id, bank_name, gemini_api_key, face_match_threshold, primary_color, updated_at)
		VALUES ($1,$2,$3,$4,$5, now())
		ON CONFLICT (id) DO UPDATE SET
			bank_name = EXCLUDED.bank_name,
			gemini_api_key = EXCLUDED.gemini_api_key,
			face_match_threshold = EXCLUDED.face_match_threshold,
			primary_color = EXCLUDED.primary_color,
			updated_at = now()`,
		settingsID, st.BankName, st.GeminiAPIKey, st.FaceMatchThreshold, st.PrimaryColor,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
