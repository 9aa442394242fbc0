package emission

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Candidate 檢索結果
type Candidate struct {
	Factor
	Score float64
}

// String 提供給模型的候選格式
func (c Candidate) String() string {
	return fmt.Sprintf("%s: %.1f kg CO2e / kg", c.Name, c.CO2PerKg)
}

type indexEntry struct {
	factor Factor
	en     vector
	da     vector
}

type vector struct {
	grams map[string]float64
	norm  float64
}

// Index 以字元三元組餘弦相似度排序的候選索引，啟動時整表載入記憶體
type Index struct {
	entries []indexEntry
}

// NewIndex 由係數建立索引，成品菜餚不進索引
func NewIndex(factors []Factor) *Index {
	ix := &Index{entries: make([]indexEntry, 0, len(factors))}
	for _, f := range factors {
		if IsFinishedDish(f.Name) {
			continue
		}
		ix.entries = append(ix.entries, indexEntry{
			factor: f,
			en:     newVector(f.Name),
			da:     newVector(f.NameDA),
		})
	}
	return ix
}

// LoadIndex 從資料庫載入
func LoadIndex(ctx context.Context, repo *Repository) (*Index, error) {
	factors, err := repo.All(ctx)
	if err != nil {
		return nil, err
	}
	ix := NewIndex(factors)
	common.LogInfo("排放係數索引已載入",
		zap.Int("rows", len(factors)),
		zap.Int("indexed", ix.Len()),
	)
	return ix, nil
}

// Len 索引筆數
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Search 取得前 k 個候選，分數相同時依名稱排序
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 || len(ix.entries) == 0 {
		return nil, nil
	}

	q := newVector(query)
	if q.norm == 0 {
		return nil, nil
	}

	scored := make([]Candidate, 0, len(ix.entries))
	for _, e := range ix.entries {
		score := math.Max(q.cosine(e.en), q.cosine(e.da))
		if score <= 0 {
			continue
		}
		scored = append(scored, Candidate{Factor: e.factor, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Name < scored[j].Name
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

var folder = cases.Fold()

// Fold NFC 正規化、大小寫摺疊、標點轉空白
func Fold(s string) string {
	s = folder.String(norm.NFC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func newVector(s string) vector {
	v := vector{grams: map[string]float64{}}
	for _, word := range strings.Fields(Fold(s)) {
		r := []rune(" " + word + " ")
		for i := 0; i+3 <= len(r); i++ {
			v.grams[string(r[i:i+3])]++
		}
	}
	var sum float64
	for _, c := range v.grams {
		sum += c * c
	}
	v.norm = math.Sqrt(sum)
	return v
}

func (v vector) cosine(o vector) float64 {
	if v.norm == 0 || o.norm == 0 {
		return 0
	}
	var dot float64
	for g, c := range v.grams {
		dot += c * o.grams[g]
	}
	return dot / (v.norm * o.norm)
}

var (
	dishHeads = map[string]bool{
		"pizza": true, "lasagne": true, "lasagna": true,
		"burger": true, "hamburger": true, "cheeseburger": true,
	}
	dishComponentWords = map[string]bool{
		"bun": true, "buns": true, "bread": true, "bolle": true, "boller": true,
		"dough": true, "dej": true, "sauce": true, "sheet": true, "sheets": true,
		"plade": true, "plader": true, "pasta": true,
		"patty": true, "patties": true, "bøf": true, "bøffer": true,
		"cheese": true, "ost": true,
	}
)

// IsFinishedDish 判斷是否為成品菜餚（pizza、lasagne、burger），"burger bun" 等食材不算
func IsFinishedDish(name string) bool {
	words := strings.Fields(Fold(name))
	if len(words) == 0 {
		return false
	}
	isDish := false
	for _, w := range words {
		// "with bun"、"med bolle" 之後描述的是配料
		if w == "with" || w == "med" {
			break
		}
		if dishHeads[w] {
			isDish = true
		}
		if dishComponentWords[w] {
			return false
		}
	}
	return isDish
}
