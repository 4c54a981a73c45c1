package utils

var (
	CRDB_DSN = GetEnvOrDefault("CRDB_DSN", "")

	REDIS_ADDR     = GetEnvOrDefault("REDIS_ADDR", "")
	REDIS_PASSWORD = GetEnvOrDefault("REDIS_PASSWORD", "")

	AWS_ACCESS_KEY_ID     = GetEnvOrDefault("AWS_ACCESS_KEY_ID", "")
	AWS_SECRET_ACCESS_KEY = GetEnvOrDefault("AWS_SECRET_ACCESS_KEY", "")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	S3_BUCKET_NAME = GetEnvOrDefault("S3_BUCKET_NAME", "")
	S3_ENDPOINT    = GetEnvOrDefault("S3_ENDPOINT", "")

	// METASTORE selects the table descriptor store: memory, redis or crdb
	METASTORE = GetEnvOrDefault("METASTORE", "memory")
	// DATASTORE selects where written parts go: disk or s3
	DATASTORE = GetEnvOrDefault("DATASTORE", "disk")

	STORE_PATH      = GetEnvOrDefault("STORE_PATH", "/tmp/icedb/store")
	TEMP_STORE_PATH = GetEnvOrDefault("TEMP_STORE_PATH", "/tmp/icedb/tmp")

	LOAD_PARALLELISM = GetEnvOrDefaultInt("LOAD_PARALLELISM", 4)
	BATCH_SIZE       = GetEnvOrDefaultInt("BATCH_SIZE", 1000)

	// Header matching, see header.MatchOptions
	HEADER_CASE_SENSITIVE = GetEnvOrDefault("HEADER_CASE_SENSITIVE", "0") == "1"
	HEADER_FOLD_ACCENTS   = GetEnvOrDefault("HEADER_FOLD_ACCENTS", "0") == "1"
)
