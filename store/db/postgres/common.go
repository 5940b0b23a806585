package postgres

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
)

// placeholder returns the n-th positional placeholder ($n).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns $1..$n
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// Dates are stored as ISO text so they sort and compare as strings.
func parseDate(raw string) (civil.Date, error) {
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, errors.Wrapf(err, "invalid stored date %q", raw)
	}
	return d, nil
}
