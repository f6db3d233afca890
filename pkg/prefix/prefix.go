// Package prefix resolves the templated s3_prefix of a put step.
package prefix

import (
	"strings"

	"github.com/sgaunet/s3-nocheck-resource/pkg/buildinfo"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
)

// Template tokens, substituted in this order.
const (
	TokenBuildID           = "{BUILD_ID}"
	TokenBuildName         = "{BUILD_NAME}"
	TokenBuildJobName      = "{BUILD_JOB_NAME}"
	TokenBuildPipelineName = "{BUILD_PIPELINE_NAME}"
	TokenBuildTeamName     = "{BUILD_TEAM_NAME}"
)

type substitution struct {
	token string
	env   string
	value func(buildinfo.Identity) *string
}

var substitutions = []substitution{
	{TokenBuildID, buildinfo.EnvBuildID, func(id buildinfo.Identity) *string { return &id.ID }},
	{TokenBuildName, buildinfo.EnvBuildName, func(id buildinfo.Identity) *string { return id.Name }},
	{TokenBuildJobName, buildinfo.EnvBuildJobName, func(id buildinfo.Identity) *string { return id.JobName }},
	{TokenBuildPipelineName, buildinfo.EnvBuildPipelineName, func(id buildinfo.Identity) *string { return id.PipelineName }},
	{TokenBuildTeamName, buildinfo.EnvBuildTeamName, func(id buildinfo.Identity) *string { return &id.TeamName }},
}

// Resolve replaces every template token in tmpl with the matching identity
// field. A token whose field is absent is a configuration error; fields whose
// token does not appear are never consulted.
func Resolve(tmpl string, id buildinfo.Identity) (string, error) {
	out := tmpl
	for _, sub := range substitutions {
		if !strings.Contains(out, sub.token) {
			continue
		}
		v := sub.value(id)
		if v == nil {
			return "", errs.Configuration("prefix", "expected %s env var to be present for token %s", sub.env, sub.token)
		}
		out = strings.ReplaceAll(out, sub.token, *v)
	}
	return out, nil
}
