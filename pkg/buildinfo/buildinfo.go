// Package buildinfo resolves the identity of the build running the resource.
package buildinfo

import (
	"encoding/json"
	"os"

	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
)

// Environment variables exposed to a resource container by the CI system.
const (
	EnvBuildID                   = "BUILD_ID"
	EnvBuildName                 = "BUILD_NAME"
	EnvBuildJobName              = "BUILD_JOB_NAME"
	EnvBuildPipelineName         = "BUILD_PIPELINE_NAME"
	EnvBuildPipelineInstanceVars = "BUILD_PIPELINE_INSTANCE_VARS"
	EnvBuildTeamName             = "BUILD_TEAM_NAME"
	EnvATCExternalURL            = "ATC_EXTERNAL_URL"
)

// Identity describes the build. ID and TeamName are always set; the other
// fields are nil when the environment does not provide them.
type Identity struct {
	ID                   string
	Name                 *string
	JobName              *string
	PipelineName         *string
	PipelineInstanceVars map[string]any
	TeamName             string
	ATCExternalURL       *string
}

// Provider resolves the build identity once per invocation.
type Provider interface {
	Identity() (Identity, error)
}

// EnvProvider reads the identity from environment variables.
type EnvProvider struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// Identity implements Provider.
func (p EnvProvider) Identity() (Identity, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var id Identity
	var ok bool
	if id.ID, ok = lookup(EnvBuildID); !ok {
		return Identity{}, errs.Configuration("identity", "environment variable %s should be present", EnvBuildID)
	}
	if id.TeamName, ok = lookup(EnvBuildTeamName); !ok {
		return Identity{}, errs.Configuration("identity", "environment variable %s should be present", EnvBuildTeamName)
	}
	id.Name = optional(lookup, EnvBuildName)
	id.JobName = optional(lookup, EnvBuildJobName)
	id.PipelineName = optional(lookup, EnvBuildPipelineName)
	id.ATCExternalURL = optional(lookup, EnvATCExternalURL)

	// Instance vars are informational only; an unparsable blob is treated as absent.
	if raw, ok := lookup(EnvBuildPipelineInstanceVars); ok {
		var vars map[string]any
		if err := json.Unmarshal([]byte(raw), &vars); err == nil {
			id.PipelineInstanceVars = vars
		}
	}
	return id, nil
}

func optional(lookup func(string) (string, bool), key string) *string {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	return &v
}

// Static always returns the same identity.
type Static Identity

// Identity implements Provider.
func (s Static) Identity() (Identity, error) {
	return Identity(s), nil
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
