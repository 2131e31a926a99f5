package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luheng/fupan/internal/contracts"
)

func TestCheckCode(t *testing.T) {
	f := &Filter{
		DenyPrefixes:  []string{"30"},
		AllowPrefixes: []string{"60", "00"},
	}

	tests := []struct {
		name     string
		code     string
		wantPass bool
	}{
		{"main board shanghai", "600519", true},
		{"main board shenzhen", "000001", true},
		{"chinext denied", "300750", false},
		{"bse not allowed", "830946", false},
		{"star market not allowed", "688981", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := f.CheckCode(tt.code)
			if tt.wantPass {
				assert.Empty(t, reason)
			} else {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCheckCodeDenyWinsOverAllow(t *testing.T) {
	// A code matching both lists must be rejected with the deny reason.
	f := &Filter{
		DenyPrefixes:  []string{"30"},
		AllowPrefixes: []string{"30", "60"},
	}
	reason := f.CheckCode("300059")
	assert.Equal(t, "排除板块(前缀30)", reason)
}

func TestCheckCodeEmptyAllowAdmitsEverything(t *testing.T) {
	f := &Filter{DenyPrefixes: []string{"30", "688"}}

	assert.Empty(t, f.CheckCode("600519"))
	assert.Empty(t, f.CheckCode("830946"))
	assert.NotEmpty(t, f.CheckCode("688981"))
}

func TestCheckExclusion(t *testing.T) {
	f := &Filter{
		DenyPrefixes: []string{"30"},
		NameMarkers:  []string{"ST", "PT", "*"},
		PriceMin:     5.0,
		PriceMax:     15.0,
	}

	tests := []struct {
		name       string
		id         contracts.Identity
		close      float64
		wantReason string
	}{
		{
			name:       "eligible",
			id:         contracts.Identity{Code: "600519", Name: "贵州茅台"},
			close:      10.0,
			wantReason: "",
		},
		{
			name:       "st name marker",
			id:         contracts.Identity{Code: "600069", Name: "ST银鸽"},
			close:      10.0,
			wantReason: "风险警示(ST)",
		},
		{
			name:       "star st name marker",
			id:         contracts.Identity{Code: "600870", Name: "*ST厦华"},
			close:      10.0,
			wantReason: "风险警示(ST)",
		},
		{
			name:       "pt name marker",
			id:         contracts.Identity{Code: "600656", Name: "PT水仙"},
			close:      10.0,
			wantReason: "风险警示(PT)",
		},
		{
			name:       "unknown name passes marker check",
			id:         contracts.Identity{Code: "600001", Name: contracts.UnknownName},
			close:      10.0,
			wantReason: "",
		},
		{
			name:       "price below band",
			id:         contracts.Identity{Code: "600001", Name: "邯郸钢铁"},
			close:      4.99,
			wantReason: "价格4.99超出5.00~15.00区间",
		},
		{
			name:       "price above band",
			id:         contracts.Identity{Code: "600001", Name: "邯郸钢铁"},
			close:      15.01,
			wantReason: "价格15.01超出5.00~15.00区间",
		},
		{
			name:       "price band lower edge inclusive",
			id:         contracts.Identity{Code: "600001", Name: "邯郸钢铁"},
			close:      5.0,
			wantReason: "",
		},
		{
			name:       "price band upper edge inclusive",
			id:         contracts.Identity{Code: "600001", Name: "邯郸钢铁"},
			close:      15.0,
			wantReason: "",
		},
		{
			name:       "code rule outranks price rule",
			id:         contracts.Identity{Code: "300750", Name: "宁德时代"},
			close:      100.0,
			wantReason: "排除板块(前缀30)",
		},
		{
			name:       "name rule outranks price rule",
			id:         contracts.Identity{Code: "600069", Name: "ST银鸽"},
			close:      100.0,
			wantReason: "风险警示(ST)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.CheckExclusion(tt.id, tt.close)
			assert.Equal(t, tt.wantReason, got)
		})
	}
}

func TestCheckExclusionZeroBandDisablesPriceRule(t *testing.T) {
	f := &Filter{}
	id := contracts.Identity{Code: "600519", Name: "贵州茅台"}

	assert.Empty(t, f.CheckExclusion(id, 0.01))
	assert.Empty(t, f.CheckExclusion(id, 9999.0))
}

// The pre-filter and the full check must agree on prefix rules so a file
// skipped by name is exactly a file the evaluator would have excluded.
func TestCheckCodeMatchesCheckExclusion(t *testing.T) {
	f := &Filter{
		DenyPrefixes:  []string{"30", "688"},
		AllowPrefixes: []string{"60", "00"},
	}
	codes := []string{"600519", "000001", "300750", "688981", "830946", "002594"}
	for _, code := range codes {
		quick := f.CheckCode(code)
		full := f.CheckExclusion(contracts.Identity{Code: code, Name: "示例"}, 0)
		assert.Equal(t, quick, full, "code %s", code)
	}
}
