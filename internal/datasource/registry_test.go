package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUnknownAdapterErrors(t *testing.T) {
	_, err := Get("does-not-exist", nil)
	assert.Error(t, err)
}

func TestRegisterAndGetRoundTrip(t *testing.T) {
	Register("test-adapter", func(settings map[string]string) (DataSource, error) {
		return nil, nil
	})
	ds, err := Get("test-adapter", map[string]string{"x": "y"})
	assert.NoError(t, err)
	assert.Nil(t, ds)
}

func TestFileAdapterRegisteredByInit(t *testing.T) {
	_, err := Get("file", map[string]string{})
	assert.Error(t, err, "file adapter requires a dir setting")
}

func TestRESTAdapterRegisteredByInit(t *testing.T) {
	_, err := Get("rest", map[string]string{})
	assert.Error(t, err, "rest adapter requires a url setting")
}
