// Package layerstore persists published-layer metadata in DynamoDB.
package layerstore

// Record is one published layer version. The partition key is the layer
// version ARN; the sort key used by the GSI is the distribution name, so
// per-distribution listings avoid a full scan.
type Record struct {
	PK                    string   `dynamodbav:"pk"`
	SK                    string   `dynamodbav:"sk"`
	LayerARN              string   `dynamodbav:"layer_arn"`
	Region                string   `dynamodbav:"region"`
	BaseName              string   `dynamodbav:"base_name,omitempty"`
	Architecture          string   `dynamodbav:"architecture,omitempty"`
	Distribution          string   `dynamodbav:"distribution"`
	LayerVersionStr       string   `dynamodbav:"layer_version_str,omitempty"`
	CollectorVersionInput string   `dynamodbav:"collector_version_input,omitempty"`
	MD5Hash               string   `dynamodbav:"md5_hash"`
	PublishTimestamp      string   `dynamodbav:"publish_timestamp,omitempty"`
	Public                bool     `dynamodbav:"public"`
	CompatibleRuntimes    []string `dynamodbav:"compatible_runtimes,omitempty"`
}
