package models

import (
	"reflect"
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func TestEntityRowsKeyedByCompanyAndId(t *testing.T) {
	rows := map[string]interface{}{
		"bills":     &Bill{},
		"customers": &Customer{},
		"products":  &Product{},
		"payments":  &Payment{},
	}
	for table, row := range rows {
		s, err := schema.Parse(row, &sync.Map{}, schema.NamingStrategy{})
		if err != nil {
			t.Fatalf("%s: parse: %v", table, err)
		}
		if s.Table != table {
			t.Fatalf("table=%q, want %q", s.Table, table)
		}
		var keys []string
		for _, f := range s.PrimaryFields {
			keys = append(keys, f.DBName)
		}
		if !reflect.DeepEqual(keys, []string{"id", "company_id"}) {
			t.Fatalf("%s: primary key %v, want [id company_id]", table, keys)
		}
	}
}
