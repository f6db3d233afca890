// Package resource implements the check, in and out operations of the
// resource on top of the transfer engine.
package resource

import (
	"context"
	"log/slog"

	"github.com/sgaunet/s3-nocheck-resource/pkg/buildinfo"
	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
	"github.com/sgaunet/s3-nocheck-resource/pkg/dispatch"
	"github.com/sgaunet/s3-nocheck-resource/pkg/dto"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
	"github.com/sgaunet/s3-nocheck-resource/pkg/prefix"
	"github.com/sgaunet/s3-nocheck-resource/pkg/scanner"
	"github.com/sgaunet/s3-nocheck-resource/pkg/storage"
	"github.com/sgaunet/s3-nocheck-resource/pkg/transfer"
)

// MetadataPath is the metadata field holding the fetched prefix.
const MetadataPath = "path"

// InResponse is written to stdout by the in operation.
type InResponse struct {
	Version  config.Version         `json:"version"`
	Metadata []config.MetadataField `json:"metadata"`
}

// OutResponse is written to stdout by the out operation.
type OutResponse struct {
	Version  config.Version         `json:"version"`
	Metadata []config.MetadataField `json:"metadata"`
}

// ConnectorFactory builds the storage connector for a source.
type ConnectorFactory func(src config.Source, log *slog.Logger) storage.Connector

// Resource runs the operations. The zero value is not usable; use New.
type Resource struct {
	connect  ConnectorFactory
	identity buildinfo.Provider
	scanner  *scanner.Service
	log      *slog.Logger
}

// New creates a Resource using the real storage drivers and the build
// identity found in the environment.
func New() *Resource {
	return &Resource{
		connect:  storage.NewConnector,
		identity: buildinfo.EnvProvider{},
		scanner:  scanner.NewService(),
		log:      slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger
func (r *Resource) SetLogger(log *slog.Logger) {
	r.log = log
	r.scanner.SetLogger(log)
}

// SetConnectorFactory replaces the storage connector factory.
func (r *Resource) SetConnectorFactory(f ConnectorFactory) {
	r.connect = f
}

// SetIdentityProvider replaces the build identity provider.
func (r *Resource) SetIdentityProvider(p buildinfo.Provider) {
	r.identity = p
}

// Check echoes the requested version. There is nothing to discover.
func (r *Resource) Check(req config.CheckRequest) []config.Version {
	if req.Version == nil {
		return []config.Version{}
	}
	return []config.Version{*req.Version}
}

// In downloads every object under the version path into outputDir. An
// invalid source or a failed connection or listing is returned; failures of
// single objects are logged and the version is reported anyway.
func (r *Resource) In(ctx context.Context, req config.InRequest, outputDir string) (InResponse, error) {
	if err := req.Source.Validate(); err != nil {
		return InResponse{}, err
	}
	resp := InResponse{
		Version:  req.Version,
		Metadata: []config.MetadataField{{Name: MetadataPath, Value: req.Version.Path}},
	}

	connector := r.connect(req.Source, r.log)
	store, err := connector.Connect(ctx, req.Source.Region())
	if err != nil {
		r.log.Error("Cannot connect to storage", slog.String("error", err.Error()))
		return InResponse{}, errs.Transfer("connect", req.Source.Bucket, err)
	}

	items, err := r.scanner.DownloadItems(ctx, store, req.Source.Bucket, req.Version.Path, outputDir)
	if err != nil {
		r.log.Error("Cannot list objects", slog.String("prefix", req.Version.Path), slog.String("error", err.Error()))
		return InResponse{}, err
	}

	summary := r.run(ctx, req.Source, connector, items)
	r.log.Info("Fetched version", slog.String("path", req.Version.Path),
		slog.Int("succeeded", summary.Succeeded), slog.Int("failed", summary.Failed))
	return resp, nil
}

// Out uploads the files of inputDir matching the glob under the resolved
// prefix and reports that prefix as the new version.
func (r *Resource) Out(ctx context.Context, req config.OutRequest, inputDir string) (OutResponse, error) {
	if err := req.Source.Validate(); err != nil {
		return OutResponse{}, err
	}
	if err := req.Params.Validate(); err != nil {
		return OutResponse{}, err
	}

	id, err := r.identity.Identity()
	if err != nil {
		return OutResponse{}, err
	}
	resolved, err := prefix.Resolve(req.Params.S3Prefix, id)
	if err != nil {
		return OutResponse{}, err
	}
	resolved = scanner.CleanPrefix(resolved)
	r.log.Debug("Resolved prefix", slog.String("template", req.Params.S3Prefix), slog.String("prefix", resolved))

	items, err := r.scanner.UploadItems(inputDir, req.Params.Glob, req.Params.Except(), resolved)
	if err != nil {
		return OutResponse{}, err
	}

	summary := r.run(ctx, req.Source, r.connect(req.Source, r.log), items)
	r.log.Info("Published version", slog.String("path", resolved),
		slog.Int("succeeded", summary.Succeeded), slog.Int("failed", summary.Failed))
	return OutResponse{
		Version:  config.Version{Path: resolved},
		Metadata: []config.MetadataField{},
	}, nil
}

func (r *Resource) run(ctx context.Context, src config.Source, connector storage.Connector, items []dto.WorkItem) dispatch.Summary {
	tr := transfer.New(connector, src.Bucket, src.Region())
	tr.SetLogger(r.log)
	return dispatch.Run(ctx, src.MaxInFlight, r.log, items, tr.Transfer)
}
