package publisher

import (
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
)

// LayerVersion is one version of a found layer.
type LayerVersion struct {
	Version int64
	ARN     string
	Created string
}

// FoundLayer is a layer whose name matched a search pattern, with all of its
// versions.
type FoundLayer struct {
	Name     string
	Region   string
	Versions []LayerVersion
}

// FindLayers lists every layer in this publisher's region whose name matches
// the glob pattern and resolves all versions of each match.
func (p *Publisher) FindLayers(ctx context.Context, pattern string) ([]FoundLayer, error) {
	var found []FoundLayer
	var marker *string

	for {
		out, err := p.client.ListLayers(ctx, &lambda.ListLayersInput{Marker: marker})
		if err != nil {
			return nil, oerrors.Wrapf(oerrors.ErrAWS, "listing layers in %s: %v", p.region, err)
		}

		for _, layer := range out.Layers {
			name := aws.ToString(layer.LayerName)
			matched, err := path.Match(pattern, name)
			if err != nil {
				return nil, oerrors.Wrapf(oerrors.ErrConfigMalformed, "invalid pattern %q: %v", pattern, err)
			}
			if !matched {
				continue
			}

			versions, err := p.layerVersions(ctx, name)
			if err != nil {
				return nil, err
			}
			found = append(found, FoundLayer{Name: name, Region: p.region, Versions: versions})
		}

		if out.NextMarker == nil {
			return found, nil
		}
		marker = out.NextMarker
	}
}

func (p *Publisher) layerVersions(ctx context.Context, layerName string) ([]LayerVersion, error) {
	var versions []LayerVersion
	var marker *string

	for {
		out, err := p.client.ListLayerVersions(ctx, &lambda.ListLayerVersionsInput{
			LayerName: aws.String(layerName),
			Marker:    marker,
		})
		if err != nil {
			return nil, oerrors.Wrapf(oerrors.ErrAWS, "listing versions of %s: %v", layerName, err)
		}

		for _, v := range out.LayerVersions {
			created := aws.ToString(v.CreatedDate)
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				created = t.Format("2006-01-02 15:04:05")
			}
			versions = append(versions, LayerVersion{
				Version: v.Version,
				ARN:     aws.ToString(v.LayerVersionArn),
				Created: created,
			})
		}

		if out.NextMarker == nil {
			return versions, nil
		}
		marker = out.NextMarker
	}
}

// DeleteVersion deletes one layer version.
func (p *Publisher) DeleteVersion(ctx context.Context, layerName string, version int64) error {
	_, err := p.client.DeleteLayerVersion(ctx, &lambda.DeleteLayerVersionInput{
		LayerName:     aws.String(layerName),
		VersionNumber: aws.Int64(version),
	})
	if err != nil {
		return oerrors.Wrapf(oerrors.ErrAWS, "deleting %s version %d in %s: %v", layerName, version, p.region, err)
	}
	return nil
}
