package seed

import (
	"context"
	"errors"
	"time"

	referencedomain "github.com/smallbiznis/gstbook/internal/reference/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gstStates lists the state codes used in GSTINs and place of supply.
var gstStates = []referencedomain.State{
	{Code: "01", Name: "Jammu and Kashmir", IsUnionTerritory: true},
	{Code: "02", Name: "Himachal Pradesh"},
	{Code: "03", Name: "Punjab"},
	{Code: "04", Name: "Chandigarh", IsUnionTerritory: true},
	{Code: "05", Name: "Uttarakhand"},
	{Code: "06", Name: "Haryana"},
	{Code: "07", Name: "Delhi", IsUnionTerritory: true},
	{Code: "08", Name: "Rajasthan"},
	{Code: "09", Name: "Uttar Pradesh"},
	{Code: "10", Name: "Bihar"},
	{Code: "11", Name: "Sikkim"},
	{Code: "12", Name: "Arunachal Pradesh"},
	{Code: "13", Name: "Nagaland"},
	{Code: "14", Name: "Manipur"},
	{Code: "15", Name: "Mizoram"},
	{Code: "16", Name: "Tripura"},
	{Code: "17", Name: "Meghalaya"},
	{Code: "18", Name: "Assam"},
	{Code: "19", Name: "West Bengal"},
	{Code: "20", Name: "Jharkhand"},
	{Code: "21", Name: "Odisha"},
	{Code: "22", Name: "Chhattisgarh"},
	{Code: "23", Name: "Madhya Pradesh"},
	{Code: "24", Name: "Gujarat"},
	{Code: "26", Name: "Dadra and Nagar Haveli and Daman and Diu", IsUnionTerritory: true},
	{Code: "27", Name: "Maharashtra"},
	{Code: "29", Name: "Karnataka"},
	{Code: "30", Name: "Goa"},
	{Code: "31", Name: "Lakshadweep", IsUnionTerritory: true},
	{Code: "32", Name: "Kerala"},
	{Code: "33", Name: "Tamil Nadu"},
	{Code: "34", Name: "Puducherry", IsUnionTerritory: true},
	{Code: "35", Name: "Andaman and Nicobar Islands", IsUnionTerritory: true},
	{Code: "36", Name: "Telangana"},
	{Code: "37", Name: "Andhra Pradesh"},
	{Code: "38", Name: "Ladakh", IsUnionTerritory: true},
	{Code: "97", Name: "Other Territory", IsUnionTerritory: true},
}

// EnsureStates seeds the GST state table. Existing rows are left alone.
func EnsureStates(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	now := time.Now().UTC()
	rows := make([]referencedomain.State, len(gstStates))
	for i, state := range gstStates {
		state.CreatedAt = now
		rows[i] = state
	}

	return db.WithContext(context.Background()).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 50).Error
}
