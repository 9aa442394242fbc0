package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2 kg of tomatoes", "tomatoes"},
		{"1-2 cups milk", "milk"},
		{"1/2 cup of sugar", "sugar"},
		{"3.5 liters water", "water"},
		{"one large onion", "onion"},
		{"", ""},
		{"2-3 tablespoons of olive oil", "olive oil"},
		{"1,5 kg potatoes", "potatoes"},
		{".5 kg rice", "rice"},
		{"half lemon", "lemon"},
		{"quarter orange", "orange"},
		{"1 1/2 cups flour", "flour"},
		{"1.5-2 dl milk", "milk"},
		{"one-and-a-half spoons", "spoons"},
		{"a pinch of salt", "salt"},
		{"some sugar", "sugar"},
		{"something", "something"},
		{"500 g hakket oksekød", "hakket oksekød"},
		{"2 spsk olivenolie", "olivenolie"},
		{"1 can of chopped tomatoes", "chopped tomatoes"},
		{"2 large potatoes", "potatoes"},
		{"1 tsp. sugar", "sugar"},
		{"2 to 3 carrots", "carrots"},
		{"ca. 2 dl fløde", "fløde"},
		{"2 cloves fresh garlic", "garlic"},
		{"2 cups of fresh basil", "basil"},
		{"200 g small potatoes", "potatoes"},
		{"3 stk friske tomater", "tomater"},
		{"T-bone steak", "T-bone steak"},
		{"C-vitamin powder", "C-vitamin powder"},
		{"2 l mælk", "mælk"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestNormalizeNeverEmpty(t *testing.T) {
	for _, in := range []string{"2", "2 kg", "one", "a"} {
		assert.NotEmpty(t, Normalize(in), in)
	}
}

func TestNormalizeAll(t *testing.T) {
	assert.Equal(t, []string{"tomatoes", "milk"}, NormalizeAll([]string{"2 kg tomatoes", "1 dl milk"}))
}
