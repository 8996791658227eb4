package model_test

import (
	"testing"

	"github.com/campsite/cmd/model"
	"github.com/stretchr/testify/assert"
)

var versionTests = [][]string{
	{"v0.20.0-dev", "v0.20.0-dev"},
	{"v0.20-dev", "v0.20.0-dev"},
	{"v0.20.", "v0.20.0"},
	{"2.0", "2.0.0"},
	{"go1.25.3", "go1.25.3"},
}

func TestVersion(t *testing.T) {
	for _, v := range versionTests {
		p, e := model.ParseVersion(v[0])
		assert.Nil(t, e, "Should have parsed %s", v)
		assert.Equal(t, v[1], p.VersionString(), "Should be equal %s==%s", p.VersionString(), v)
	}
}

func TestVersionInvalid(t *testing.T) {
	_, err := model.ParseVersion("latest")
	assert.Error(t, err)
}

func TestVersionSatisfiesGo(t *testing.T) {
	v := &model.Version{MinGoVersion: ">= go1.22"}

	ok, err := v.SatisfiesGo("go1.25.0")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.SatisfiesGo("go1.21.9")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, _ = v.SatisfiesGo("go1.22")
	assert.True(t, ok, "same version satisfies the minimum")
}
