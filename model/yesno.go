package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// YesNo is a bool persisted as the text 'Yes' or 'No'.
// Native boolean and integer columns are accepted on scan as well.
type YesNo bool

// Scan implements sql.Scanner.
func (yn *YesNo) Scan(src any) error {
	switch v := src.(type) {
	case bool:
		*yn = YesNo(v)
	case int64:
		*yn = v != 0
	case string:
		b, err := parseYesNo(v)
		if err != nil {
			return err
		}
		*yn = YesNo(b)
	case []byte:
		return yn.Scan(string(v))
	case nil:
		return fmt.Errorf("model: cannot scan NULL into YesNo")
	default:
		return fmt.Errorf("model: cannot scan %T into YesNo", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (yn YesNo) Value() (driver.Value, error) {
	if yn {
		return "Yes", nil
	}
	return "No", nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("model: invalid yes/no value %q", s)
}
