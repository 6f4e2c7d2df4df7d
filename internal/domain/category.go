package domain

import (
	"encoding/json"
	"strings"
)

// PathSeparator joins path elements in the CATEGORY_PATH column
const PathSeparator = "|"

// Header is the fixed header of the result table
var Header = []string{"CATEGORY_ID", "CATEGORY_NAME", "CATEGORY_PATH"}

// CategoryNode is one node of the forest returned by the tree endpoint
type CategoryNode struct {
	CategoryID json.Number    `json:"categoryId,omitempty"`
	Children   []CategoryNode `json:"children,omitempty"`
}

// CategoryRecord is a single category returned by the lookup endpoint
type CategoryRecord struct {
	CategoryID json.Number `json:"categoryId"`
	Path       []string    `json:"path"` // root-to-leaf names, the last one is the display name
}

// Row is one line of the result table
type Row struct {
	CategoryID   string `json:"CATEGORY_ID"`
	CategoryName string `json:"CATEGORY_NAME"`
	CategoryPath string `json:"CATEGORY_PATH"`
}

// NewRow flattens a category into a row. path must not be empty.
func NewRow(categoryID string, path []string) Row {
	return Row{
		CategoryID:   categoryID,
		CategoryName: path[len(path)-1],
		CategoryPath: strings.Join(path, PathSeparator),
	}
}

// Values returns the row in Header order
func (r Row) Values() []string {
	return []string{r.CategoryID, r.CategoryName, r.CategoryPath}
}
