package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnTengye/clausewise/backend/model"
)

func TestClassifyFallback(t *testing.T) {
	c := NewClassifier(model.Availability{}, nil, testConfig())

	tests := []struct {
		name string
		text string
		want string
	}{
		{"scenario ties resolve to first declared", scenarioText, model.DocumentTypeNDA},
		{"lease", "The tenant pays rent to the landlord for the premises.", model.DocumentTypeLease},
		{"occurrences count", "The employee and employer agree. Confidential.", model.DocumentTypeEmployment},
		{"no keywords", "Hello world.", model.DocumentTypeOther},
		{"empty", "", model.DocumentTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, path := c.Classify(context.Background(), tt.text)
			assert.Equal(t, tt.want, label)
			assert.Equal(t, model.PathFallback, path)
		})
	}
}

func TestClassify_Backend(t *testing.T) {
	nlu := &fakeNLU{result: &model.NLUResult{
		Keywords: []model.NLUKeyword{{Text: "Software License"}, {Text: "licensee"}},
		Concepts: []model.NLUConcept{{Text: "Intellectual property"}},
	}}
	c := NewClassifier(model.Availability{NLU: true}, nlu, testConfig())

	label, path := c.Classify(context.Background(), "the tenant and the landlord")

	assert.Equal(t, model.DocumentTypeLicense, label)
	assert.Equal(t, model.PathBackend, path)
	require.Equal(t, 1, nlu.calls)
	assert.Equal(t, model.NLUOptions{Keywords: 10, Concepts: 5}, nlu.opts[0])
}

func TestClassify_BackendNoMatchIsOther(t *testing.T) {
	nlu := &fakeNLU{result: &model.NLUResult{Keywords: []model.NLUKeyword{{Text: "weather"}}}}
	c := NewClassifier(model.Availability{NLU: true}, nlu, testConfig())

	label, path := c.Classify(context.Background(), "The tenant pays rent.")

	assert.Equal(t, model.DocumentTypeOther, label)
	assert.Equal(t, model.PathBackend, path)
}

func TestClassify_BackendFailureFallsBack(t *testing.T) {
	nlu := &fakeNLU{err: errBackendDown}
	c := NewClassifier(model.Availability{NLU: true}, nlu, testConfig())

	label, path := c.Classify(context.Background(), "The tenant pays rent to the landlord.")

	assert.Equal(t, model.DocumentTypeLease, label)
	assert.Equal(t, model.PathFallback, path)
}

func TestClassify_AlwaysInLabelSet(t *testing.T) {
	c := NewClassifier(model.Availability{}, nil, testConfig())
	for _, in := range []string{"", "abcde", scenarioText, "license licensor purchase buyer lease"} {
		label, _ := c.Classify(context.Background(), in)
		assert.Contains(t, model.DocumentTypes, label)

		again, _ := c.Classify(context.Background(), in)
		assert.Equal(t, label, again)
	}
}
