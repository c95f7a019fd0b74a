package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

// start_date holds either a calendar date or a full timestamp, so it is read
// back as text. A DATE column would otherwise arrive as a UTC midnight instant.
const campaignColumns = `id, name, objective, platforms, creative, start_date::text AS start_date, post_time, status, created_at, updated_at`

type campaignRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Objective string         `db:"objective"`
	Platforms pq.StringArray `db:"platforms"`
	Creative  []byte         `db:"creative"`
	StartDate string         `db:"start_date"`
	PostTime  sql.NullString `db:"post_time"`
	Status    string         `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r campaignRow) toModel() models.Campaign {
	campaign := models.Campaign{
		ID:        r.ID,
		Name:      r.Name,
		Objective: r.Objective,
		Platforms: []string(r.Platforms),
		Scheduling: models.CampaignScheduling{
			StartDate: r.StartDate,
			PostTime:  r.PostTime.String,
		},
		Status:    models.CampaignStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Creative) > 0 {
		campaign.Creative = append([]byte(nil), r.Creative...)
	}
	return campaign
}

// CampaignRepository persists campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs a campaign repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// List returns every campaign ordered by start date.
func (r *CampaignRepository) List(ctx context.Context) ([]models.Campaign, error) {
	query := fmt.Sprintf("SELECT %s FROM campaigns ORDER BY start_date ASC, created_at ASC", campaignColumns)
	var rows []campaignRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	campaigns := make([]models.Campaign, 0, len(rows))
	for _, row := range rows {
		campaigns = append(campaigns, row.toModel())
	}
	return campaigns, nil
}

// Create inserts a campaign and returns the stored record.
func (r *CampaignRepository) Create(ctx context.Context, fields models.CampaignFields) (*models.Campaign, error) {
	now := time.Now().UTC()
	row := campaignRow{
		ID:        uuid.NewString(),
		Name:      fields.Name,
		Objective: fields.Objective,
		Platforms: pq.StringArray(fields.Platforms),
		Creative:  creativeValue(fields.Creative),
		StartDate: fields.Scheduling.StartDate,
		PostTime:  nullableString(fields.Scheduling.PostTime),
		Status:    string(fields.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	query := `INSERT INTO campaigns (id, name, objective, platforms, creative, start_date, post_time, status, created_at, updated_at)
VALUES (:id, :name, :objective, :platforms, :creative, :start_date, :post_time, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	campaign := row.toModel()
	return &campaign, nil
}

// Update replaces the mutable fields of a campaign. It returns sql.ErrNoRows
// when the campaign does not exist.
func (r *CampaignRepository) Update(ctx context.Context, id string, fields models.CampaignFields) (*models.Campaign, error) {
	query := fmt.Sprintf(`UPDATE campaigns SET name = $1, objective = $2, platforms = $3, creative = $4, start_date = $5, post_time = $6, status = $7, updated_at = $8
WHERE id = $9 RETURNING %s`, campaignColumns)
	var row campaignRow
	err := r.db.GetContext(ctx, &row, query,
		fields.Name,
		fields.Objective,
		pq.Array(fields.Platforms),
		creativeValue(fields.Creative),
		fields.Scheduling.StartDate,
		nullableString(fields.Scheduling.PostTime),
		string(fields.Status),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	campaign := row.toModel()
	return &campaign, nil
}

// Delete removes a campaign. It returns sql.ErrNoRows when nothing was deleted.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return requireAffected(res)
}

func creativeValue(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
