package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "insight_jobs_request", SanitizeName("insight.jobs.request"))
	assert.Equal(t, "jobs_all", SanitizeName("jobs.*"))
	assert.Equal(t, "a-b_c", SanitizeName("a-b_c"))
	assert.Equal(t, "a_b", SanitizeName("a b"))
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "INSIGHT_INSIGHT_JOBS_RESULT", StreamName("insight.jobs.result"))
}
