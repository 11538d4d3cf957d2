// Package config provides configuration loading and management.
package config

// Config represents the ocelot CLI configuration.
type Config struct {
	// UpstreamRepo is the upstream repository slug to clone.
	// Env: OCELOT_UPSTREAM_REPO
	UpstreamRepo string `mapstructure:"upstreamRepo"`

	// UpstreamRef is the git ref (branch, tag, SHA) to check out.
	// Env: OCELOT_UPSTREAM_REF
	UpstreamRef string `mapstructure:"upstreamRef"`

	// LayerName is the base name for published Lambda layers.
	// Env: OCELOT_LAYER_NAME
	LayerName string `mapstructure:"layerName"`

	// ReleaseGroup distinguishes prod from pre-release layers.
	// Env: OCELOT_RELEASE_GROUP
	ReleaseGroup string `mapstructure:"releaseGroup"`

	// Regions is the list of AWS regions used for multi-region operations
	// (delete fan-out, "all" release matrices). Explicit configuration, not a
	// process-global.
	Regions []string `mapstructure:"regions"`

	// DynamoDBTable is the layer metadata table name.
	// Env: OCELOT_DYNAMODB_TABLE
	DynamoDBTable string `mapstructure:"dynamodbTable"`

	// DynamoDBRegion is the region hosting the metadata table.
	// Env: OCELOT_DYNAMODB_REGION
	DynamoDBRegion string `mapstructure:"dynamodbRegion"`

	// DistributionsFile is the path to the distributions YAML.
	// Env: OCELOT_DISTRIBUTIONS_FILE
	DistributionsFile string `mapstructure:"distributionsFile"`

	// DependenciesFile is the path to the component dependency YAML.
	// Env: OCELOT_DEPENDENCIES_FILE
	DependenciesFile string `mapstructure:"dependenciesFile"`

	// ComponentsDir is the root of the custom component sources.
	// Env: OCELOT_COMPONENTS_DIR
	ComponentsDir string `mapstructure:"componentsDir"`

	// CollectorConfigsDir holds optional collector config overrides.
	// Env: OCELOT_COLLECTOR_CONFIGS_DIR
	CollectorConfigsDir string `mapstructure:"collectorConfigsDir"`
}

// Defaults used when neither flags, env, nor the config file provide a value.
const (
	DefaultUpstreamRepo  = "open-telemetry/opentelemetry-lambda"
	DefaultUpstreamRef   = "main"
	DefaultLayerName     = "ocel"
	DefaultReleaseGroup  = "prod"
	DefaultDynamoDBTable = "custom-collector-extension-layers"
)

// DefaultRegions is the publish/delete region list. Kept as data so a config
// file can narrow or extend it per deployment.
var DefaultRegions = []string{
	"ca-central-1",
	"ca-west-1",
	"eu-central-1",
	"eu-central-2",
	"eu-north-1",
	"eu-south-1",
	"eu-south-2",
	"eu-west-1",
	"eu-west-2",
	"eu-west-3",
	"us-east-1",
	"us-east-2",
	"us-west-2",
}

// WithDefaults returns a copy of the config with defaults applied to unset
// fields.
func (c *Config) WithDefaults() *Config {
	out := *c
	if out.UpstreamRepo == "" {
		out.UpstreamRepo = DefaultUpstreamRepo
	}
	if out.UpstreamRef == "" {
		out.UpstreamRef = DefaultUpstreamRef
	}
	if out.LayerName == "" {
		out.LayerName = DefaultLayerName
	}
	if out.ReleaseGroup == "" {
		out.ReleaseGroup = DefaultReleaseGroup
	}
	if len(out.Regions) == 0 {
		out.Regions = append([]string(nil), DefaultRegions...)
	}
	if out.DynamoDBTable == "" {
		out.DynamoDBTable = DefaultDynamoDBTable
	}
	if out.DistributionsFile == "" {
		out.DistributionsFile = "config/distributions.yaml"
	}
	if out.DependenciesFile == "" {
		out.DependenciesFile = "config/component_dependencies.yaml"
	}
	if out.ComponentsDir == "" {
		out.ComponentsDir = "components"
	}
	if out.CollectorConfigsDir == "" {
		out.CollectorConfigsDir = "config/collector-configs"
	}
	return &out
}
