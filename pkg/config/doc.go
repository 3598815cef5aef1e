/*
Package config loads the ordinalindexd process configuration from a YAML
file. Unset fields fall back to Default()'s values; any
"_PORT"/"_DB_ROOT"/"_MAP_SIZE_BYTES"-suffixed environment variable prefixed
ORDINALINDEX overrides the corresponding field after the file is loaded.
*/
package config
