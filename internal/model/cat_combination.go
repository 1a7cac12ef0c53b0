package model

// CAT buckets
const (
	Cat1 = "cat1"
	Cat2 = "cat2"
)

// CatCombination splits a paper's modules into CAT buckets (cat_combinations)
type CatCombination struct {
	CatCombinationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"cat_combination_id"`
	PaperID          string `gorm:"type:uuid;not null;uniqueIndex"                 json:"paper_id"`
	BaseModel

	Paper   *Paper                 `gorm:"foreignKey:PaperID;references:PaperID"                   json:"paper,omitempty"`
	Modules []CatCombinationModule `gorm:"foreignKey:CatCombinationID;references:CatCombinationID" json:"modules,omitempty"`
}

// ModuleIDs module ids in bucket cat
func (c *CatCombination) ModuleIDs(cat string) []string {
	ids := make([]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		if m.Cat == cat {
			ids = append(ids, m.ModuleID)
		}
	}
	return ids
}

// TableName table name
func (CatCombination) TableName() string { return "cat_combinations" }

// CatCombinationModule places one module in one bucket (cat_combination_modules)
type CatCombinationModule struct {
	CatCombinationID string `gorm:"type:uuid;primaryKey"             json:"cat_combination_id"`
	ModuleID         string `gorm:"type:uuid;primaryKey;uniqueIndex" json:"module_id"`
	Cat              string `gorm:"type:varchar(4);not null"         json:"cat"`

	Module *Module `gorm:"foreignKey:ModuleID;references:ModuleID" json:"module,omitempty"`
}

// TableName table name
func (CatCombinationModule) TableName() string { return "cat_combination_modules" }
