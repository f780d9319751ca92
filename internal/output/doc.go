// Package output renders analytics values for people and files.
//
// Encoding is deterministic: identical inputs produce byte-identical JSON,
// so packs and briefs can be diffed between sessions and used as test
// snapshots. Normalize turns any JSON-serializable value into a generic tree
// with sorted keys, floats rounded to six decimals and null members dropped;
// the report encoders (JSON, YAML, TOML) all start from that tree.
//
// The Format* helpers produce the short figures shown in headline metrics
// and briefs ("42%", "12 d", "0.75"), with Placeholder for missing data.
package output
