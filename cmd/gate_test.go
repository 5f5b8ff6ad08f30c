package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingReportJSON = `{
  "categories": [
    {"category": "provenance", "overall_status": "fail", "checks": [
      {"id": "numbers_traceable", "description": "d", "status": "fail"},
      {"id": "source_numbers_present", "description": "d", "status": "pass"}
    ]}
  ],
  "overall_status": "fail"
}`

const passingReportJSON = `{
  "categories": [
    {"category": "compliance", "overall_status": "pass", "checks": [
      {"id": "disclaimers_present", "description": "d", "status": "pass"}
    ]}
  ],
  "overall_status": "pass"
}`

func runGate(t *testing.T, reportJSON string) (string, string, error) {
	t.Helper()
	cfg = testConfig()
	dir := t.TempDir()
	path := writeFile(t, dir, "r.report.json", reportJSON)
	gateBadgePath = filepath.Join(dir, "badge.json")
	t.Cleanup(func() { gateBadgePath = "" })

	var out bytes.Buffer
	gateCmd.SetOut(&out)
	t.Cleanup(func() { gateCmd.SetOut(nil) })

	err := gateCmd.RunE(gateCmd, []string{path})
	badge, readErr := os.ReadFile(gateBadgePath)
	require.NoError(t, readErr)
	return out.String(), string(badge), err
}

func TestGateCommand_Blocks(t *testing.T) {
	out, badge, err := runGate(t, failingReportJSON)
	require.Error(t, err)
	assert.Contains(t, out, "Advisory Gate: Blocked")
	assert.Contains(t, out, "numbers_traceable")
	assert.Contains(t, badge, `"message":"blocked"`)
}

func TestGateCommand_Publishes(t *testing.T) {
	out, badge, err := runGate(t, passingReportJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "Advisory Gate: Publish")
	assert.Contains(t, badge, `"color":"brightgreen"`)
}

func TestGateCommand_MissingFile(t *testing.T) {
	cfg = testConfig()
	err := gateCmd.RunE(gateCmd, []string{filepath.Join(t.TempDir(), "nope.json")})
	assert.Error(t, err)
}
