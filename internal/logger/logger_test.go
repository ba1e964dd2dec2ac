package logger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFieldsIsSorted(t *testing.T) {
	got := formatFields(Fields{"b": 2, "a": "x", "c": 1.5})
	assert.Equal(t, formatFields(Fields{"c": 1.5, "a": "x", "b": 2}), got)
	assert.Less(t, strings.Index(got, "a="), strings.Index(got, "b="))
	assert.Less(t, strings.Index(got, "b="), strings.Index(got, "c="))
}

func TestConvertFieldsToMap(t *testing.T) {
	m := convertFieldsToMap(Fields{"operation": "notes", "series_length": 3})
	assert.Equal(t, "notes", m["operation"])
	assert.Equal(t, 3, m["series_length"])
}

func TestLoggingWithoutSentry(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("info", nil)
		Warn("warn", Fields{"k": "v"})
		Error("error", errors.New("boom"), Fields{"kind": "internal"})
		Error("message only", nil, nil)
	})
}
