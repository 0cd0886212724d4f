package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestNormalizeStringList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"native array", `["GPS","Bluetooth"]`, []string{"GPS", "Bluetooth"}},
		{"empty array", `[]`, []string{}},
		{"doubly encoded array", `"[\"GPS\",\"Bluetooth\"]"`, []string{"GPS", "Bluetooth"}},
		{"bare string", `"GPS"`, []string{"GPS"}},
		{"empty string", `""`, []string{}},
		{"null", `null`, []string{}},
		{"garbage", `{{{`, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeStringList([]byte(tc.raw)))
		})
	}

	assert.Equal(t, []string{}, NormalizeStringList(nil))
}

func TestCarFeatureListReadsLegacyColumn(t *testing.T) {
	car := Car{
		Features: datatypes.JSON(`"[\"Sunroof\"]"`),
		Images:   datatypes.JSON(`["a.jpg","b.jpg"]`),
	}
	assert.Equal(t, []string{"Sunroof"}, car.FeatureList())
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, car.ImageList())
}

func TestMarshalStringList(t *testing.T) {
	assert.JSONEq(t, `["GPS"]`, string(MarshalStringList([]string{"GPS"})))
	assert.JSONEq(t, `[]`, string(MarshalStringList(nil)))
}
