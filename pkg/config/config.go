// Package config holds the request model of the resource: the source block
// shared by every operation, the per-operation params and the version.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v2"

	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
)

// DefaultRegion is used when the source does not set region_name.
const DefaultRegion = "us-east-1"

// Storage drivers accepted in Source.Driver.
const (
	DriverAWS   = "aws"
	DriverMinio = "minio"
)

// Source is the resource configuration. It is read-only once decoded and
// shared by every transfer of an invocation.
type Source struct {
	Bucket          string `json:"bucket" yaml:"bucket"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty" yaml:"session_token"`
	AwsRoleArn      string `json:"aws_role_arn,omitempty" yaml:"aws_role_arn"`
	RegionName      string `json:"region_name,omitempty" yaml:"region_name"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint"`
	Driver          string `json:"driver,omitempty" yaml:"driver"`
	DisableSSL      bool   `json:"disable_ssl,omitempty" yaml:"disable_ssl"`
	MaxInFlight     int    `json:"max_in_flight,omitempty" yaml:"max_in_flight"`
}

// Region returns the configured region or DefaultRegion.
func (s Source) Region() string {
	if s.RegionName == "" {
		return DefaultRegion
	}
	return s.RegionName
}

// StorageDriver returns the configured driver, DriverAWS when unset.
func (s Source) StorageDriver() string {
	if s.Driver == "" {
		return DriverAWS
	}
	return s.Driver
}

// Validate checks the fields every operation touching the bucket needs.
func (s Source) Validate() error {
	if s.Bucket == "" {
		return errs.Configuration("source", "bucket must be provided")
	}
	if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
		return errs.Configuration("source", "access_key_id and secret_access_key must be set together")
	}
	if s.MaxInFlight < 0 {
		return errs.Configuration("source", "max_in_flight must not be negative, got %d", s.MaxInFlight)
	}
	switch s.StorageDriver() {
	case DriverAWS:
	case DriverMinio:
		if s.Endpoint == "" {
			return errs.Configuration("source", "endpoint must be provided for driver %q", DriverMinio)
		}
		if s.AwsRoleArn != "" {
			return errs.Configuration("source", "aws_role_arn is not supported by driver %q", DriverMinio)
		}
	default:
		return errs.Configuration("source", "unknown driver %q", s.Driver)
	}
	return nil
}

// Version identifies a set of objects by the prefix they live under.
type Version struct {
	Path string `json:"path" yaml:"path"`
}

// MetadataField is one name/value pair shown next to a version.
type MetadataField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InParams is accepted for completeness; get steps take no parameters.
type InParams struct{}

// OutParams drives the enumeration of a put step.
type OutParams struct {
	Glob        string  `json:"glob" yaml:"glob"`
	ExceptRegex *Regexp `json:"except_regex,omitempty" yaml:"except_regex"`
	S3Prefix    string  `json:"s3_prefix" yaml:"s3_prefix"`
}

// Validate checks that the required params are present.
func (p OutParams) Validate() error {
	if p.Glob == "" {
		return errs.Configuration("params", "glob must be provided")
	}
	if p.S3Prefix == "" {
		return errs.Configuration("params", "s3_prefix must be provided")
	}
	return nil
}

// Except returns the compiled exclusion pattern or nil.
func (p OutParams) Except() *regexp.Regexp {
	if p.ExceptRegex == nil {
		return nil
	}
	return p.ExceptRegex.Regexp
}

// CheckRequest is the payload of the check operation.
type CheckRequest struct {
	Source  Source   `json:"source" yaml:"source"`
	Version *Version `json:"version" yaml:"version"`
}

// InRequest is the payload of the in operation.
type InRequest struct {
	Source  Source    `json:"source" yaml:"source"`
	Version Version   `json:"version" yaml:"version"`
	Params  *InParams `json:"params,omitempty" yaml:"params"`
}

// OutRequest is the payload of the out operation.
type OutRequest struct {
	Source Source    `json:"source" yaml:"source"`
	Params OutParams `json:"params" yaml:"params"`
}

// ReadRequest decodes a JSON request envelope from r into v.
func ReadRequest(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errs.Configuration("request", "error parsing request: %w", err)
	}
	return nil
}

// ReadYamlRequestFile reads a request envelope from a YAML (or JSON) file.
func ReadYamlRequestFile(filename string, v any) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return errs.Configuration("request", "error reading request file: %w", err)
	}
	if err := yaml.Unmarshal(content, v); err != nil {
		return errs.Configuration("request", "error parsing request file: %w", err)
	}
	return nil
}

// Regexp is a regular expression decoded from its string form.
type Regexp struct {
	*regexp.Regexp
}

// NewRegexp compiles expr.
func NewRegexp(expr string) (*Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", expr, err)
	}
	return &Regexp{Regexp: re}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Regexp) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err != nil {
		return err
	}
	return r.set(expr)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Regexp) UnmarshalYAML(unmarshal func(any) error) error {
	var expr string
	if err := unmarshal(&expr); err != nil {
		return err
	}
	return r.set(expr)
}

// MarshalJSON implements json.Marshaler.
func (r *Regexp) MarshalJSON() ([]byte, error) {
	if r == nil || r.Regexp == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

func (r *Regexp) set(expr string) error {
	re, err := NewRegexp(expr)
	if err != nil {
		return err
	}
	r.Regexp = re.Regexp
	return nil
}
