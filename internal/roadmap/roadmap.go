// Package roadmap resolves the ordered interview topic sequence for a
// (role, experience level, interview type) triple from static tables
// compiled into the binary. Resolution is deterministic and never fails:
// unknown roles, levels, or types fall back along a fixed chain.
package roadmap

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

//go:embed roadmaps.yaml
var rawTables []byte

// DefaultRole is the fallback when a free-text role matches nothing.
const DefaultRole = "Frontend Developer"

// FillerTopic is supplied for step indexes beyond a roadmap's length.
const FillerTopic = "Advanced/Scenario Challenge"

type levelTable map[domain.ExperienceLevel][]string
type typeTable map[domain.InterviewType]levelTable

var tables map[string]typeTable

// roleAliases maps lowercase substrings of free-text roles to table keys.
// Checked in order; first hit wins.
var roleAliases = []struct {
	needle string
	role   string
}{
	{"full stack", "Full Stack Developer"},
	{"fullstack", "Full Stack Developer"},
	{"front", "Frontend Developer"},
	{"ui developer", "Frontend Developer"},
	{"react", "Frontend Developer"},
	{"back", "Backend Developer"},
	{"api", "Backend Developer"},
	{"server", "Backend Developer"},
	{"devops", "DevOps Engineer"},
	{"sre", "DevOps Engineer"},
	{"platform", "DevOps Engineer"},
	{"infra", "DevOps Engineer"},
	{"data analyst", "Data Analyst"},
	{"analyst", "Data Analyst"},
	{"analytics", "Data Analyst"},
}

func init() {
	var doc struct {
		Roles map[string]typeTable `yaml:"roles"`
	}
	if err := yaml.Unmarshal(rawTables, &doc); err != nil {
		panic(fmt.Sprintf("roadmap: embedded tables malformed: %v", err))
	}
	if _, ok := doc.Roles[DefaultRole]; !ok {
		panic("roadmap: embedded tables missing default role")
	}
	tables = doc.Roles
}

// Roles returns the set of roles with authored tables.
func Roles() []string {
	out := make([]string, 0, len(tables))
	for r := range tables {
		out = append(out, r)
	}
	return out
}

// NormalizeRole maps a free-text role to an authored table key, falling
// back to DefaultRole.
func NormalizeRole(role string) string {
	r := strings.TrimSpace(role)
	for key := range tables {
		if strings.EqualFold(key, r) {
			return key
		}
	}
	lower := strings.ToLower(r)
	for _, a := range roleAliases {
		if strings.Contains(lower, a.needle) {
			return a.role
		}
	}
	return DefaultRole
}

// Resolve returns the ordered topic list for the triple. The fallback chain
// is role -> DefaultRole, type -> technical, level -> mid; the result is
// always non-empty. The returned slice is a copy.
func Resolve(role string, level domain.ExperienceLevel, t domain.InterviewType) []string {
	byType := tables[NormalizeRole(role)]
	byLevel, ok := byType[t]
	if !ok {
		byLevel = byType[domain.InterviewTechnical]
	}
	topics, ok := byLevel[level]
	if !ok {
		topics = byLevel[domain.LevelMid]
	}
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}

// TopicAt returns the topic for a 0-based step index, or FillerTopic when
// the index runs past the authored roadmap.
func TopicAt(topics []string, i int) string {
	if i >= 0 && i < len(topics) {
		return topics[i]
	}
	return FillerTopic
}
