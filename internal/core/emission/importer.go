package emission

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// 可接受的欄位名稱（英文匯出與丹麥文原始檔）
var columnAliases = map[string][]string{
	"name":     {"name", "product", "navn_en"},
	"name_da":  {"navn", "name_da", "produkt"},
	"category": {"category", "kategori"},
	"co2":      {"total_kg_co2_eq_kg", "co2_per_kg", "total kg co2-eq/kg"},
	"energy":   {"energy", "energy_kj", "energi (kj/100 g)"},
}

// ImportStats 匯入結果
type ImportStats struct {
	Imported int
	Skipped  int
}

// ImportCSV 將 CSV 匯入資料表，略過成品菜餚與無效列
func ImportCSV(ctx context.Context, r io.Reader, repo *Repository) (ImportStats, error) {
	var stats ImportStats

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	cols := resolveColumns(header)
	if _, ok := cols["name"]; !ok {
		return stats, fmt.Errorf("missing name column")
	}
	if _, ok := cols["co2"]; !ok {
		return stats, fmt.Errorf("missing co2 column")
	}

	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}

		f, ok := parseRecord(rec, cols)
		if !ok || IsFinishedDish(f.Name) {
			stats.Skipped++
			continue
		}
		if err := repo.Upsert(ctx, f); err != nil {
			return stats, err
		}
		stats.Imported++
	}

	common.LogInfo("排放係數匯入完成",
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func resolveColumns(header []string) map[string]int {
	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for key, aliases := range columnAliases {
			for _, a := range aliases {
				if h == a {
					cols[key] = i
				}
			}
		}
	}
	return cols
}

func parseRecord(rec []string, cols map[string]int) (Factor, bool) {
	get := func(key string) string {
		i, ok := cols[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	f := Factor{
		Name:     get("name"),
		NameDA:   get("name_da"),
		Category: get("category"),
	}
	if f.Name == "" {
		return f, false
	}

	co2, err := parseDecimal(get("co2"))
	if err != nil || co2 < 0 {
		return f, false
	}
	f.CO2PerKg = co2

	if e, err := parseDecimal(get("energy")); err == nil {
		f.EnergyKJ = &e
	}
	return f, true
}

// parseDecimal 接受小數點或小數逗號
func parseDecimal(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
