package emission

import (
	"context"
	"database/sql"
	"fmt"
)

// Factor 一筆排放係數（denstoreklimadatabase.dk）
type Factor struct {
	ID       int64
	Name     string
	NameDA   string
	Category string
	Unit     string
	CO2PerKg float64
	EnergyKJ *float64
}

// Repository 排放係數資料表存取
type Repository struct {
	DB *sql.DB
}

// NewRepository 建立 Repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// Upsert 依英文名稱新增或更新
func (r *Repository) Upsert(ctx context.Context, f Factor) error {
	if f.Unit == "" {
		f.Unit = "kg CO2e/kg"
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO dk_co2_emission (name, name_da, category, unit, co2_per_kg, energy_kj)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			name_da = excluded.name_da,
			category = excluded.category,
			unit = excluded.unit,
			co2_per_kg = excluded.co2_per_kg,
			energy_kj = excluded.energy_kj`,
		f.Name, f.NameDA, f.Category, f.Unit, f.CO2PerKg, f.EnergyKJ)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", f.Name, err)
	}
	return nil
}

// All 讀取全部係數
func (r *Repository) All(ctx context.Context) ([]Factor, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, name_da, category, unit, co2_per_kg, energy_kj
		FROM dk_co2_emission ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query factors: %w", err)
	}
	defer rows.Close()

	var out []Factor
	for rows.Next() {
		var f Factor
		var energy sql.NullFloat64
		if err := rows.Scan(&f.ID, &f.Name, &f.NameDA, &f.Category, &f.Unit, &f.CO2PerKg, &energy); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		if energy.Valid {
			v := energy.Float64
			f.EnergyKJ = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetByName 依英文名稱取得；找不到時回傳 sql.ErrNoRows
func (r *Repository) GetByName(ctx context.Context, name string) (Factor, error) {
	var f Factor
	var energy sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, name_da, category, unit, co2_per_kg, energy_kj
		FROM dk_co2_emission WHERE name = ?`, name).
		Scan(&f.ID, &f.Name, &f.NameDA, &f.Category, &f.Unit, &f.CO2PerKg, &energy)
	if err != nil {
		return Factor{}, err
	}
	if energy.Valid {
		v := energy.Float64
		f.EnergyKJ = &v
	}
	return f, nil
}

// Count 資料筆數
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM dk_co2_emission`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count factors: %w", err)
	}
	return n, nil
}

// Ping 健康檢查
func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
