// Package envloader loads environment variables into typed struct
// fields using `env` and `envDefault` tags. It handles strings,
// integers, unsigned integers, booleans and floats, and walks nested
// structs and pointers to structs.
//
// The configuration package uses it to let deployment environments
// override values loaded from YAML:
//
//	type Config struct {
//		TableName string `yaml:"table_name" env:"DYNAMODB_TABLE_NAME"`
//		Region    string `yaml:"region" env:"AWS_REGION" envDefault:"us-east-1"`
//	}
//
//	var cfg Config
//	if err := envloader.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
package envloader
