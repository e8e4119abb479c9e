package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("      %s\n", suggestion))
			}
		}
	}
	write("errors", vr.Errors)
	write("warnings", vr.Warnings)

	return builder.String()
}

// ValidateConfigWithDetails checks every section and collects all issues
// instead of stopping at the first one.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateTemplatesDetails(&config.Templates, result)
	validateCacheDetails(&config.Cache, result)
	validateDataDetails(&config.Data, result)

	if err := validateRenderConfig(&config.Render); err != nil {
		result.addError("render.mode", config.Render.Mode, err.Error(), RenderModes...)
	}
	if err := validateServerConfig(&config.Server); err != nil {
		result.addError("server", config.Server.Address(), err.Error())
	} else if config.Server.Port > 0 && config.Server.Port < 1024 {
		result.addWarning("server.port", config.Server.Port,
			"privileged port may require elevated permissions",
			"Use a port between 1024-65535")
	}
	if err := validateLogConfig(&config.Log); err != nil {
		result.addError("log", config.Log, err.Error())
	}

	result.Valid = !result.HasErrors()

	return result
}

func (vr *ValidationResult) addError(field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field: field, Value: value, Message: msg, Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field: field, Value: value, Message: msg, Suggestions: suggestions,
	})
}

func validateTemplatesDetails(config *TemplatesConfig, result *ValidationResult) {
	if err := validateTemplatesConfig(config); err != nil {
		result.addError("templates", config.Dir, err.Error())
		return
	}

	info, err := os.Stat(config.Dir)
	switch {
	case err != nil:
		result.addWarning("templates.dir", config.Dir, "templates directory does not exist",
			fmt.Sprintf("Create it with: mkdir -p %s", config.Dir))
	case !info.IsDir():
		result.addError("templates.dir", config.Dir, "templates path is not a directory")
	}
}

func validateCacheDetails(config *CacheConfig, result *ValidationResult) {
	if err := validateCacheConfig(config); err != nil {
		result.addError("cache", config.Backend, err.Error(), BackendNone, BackendMemory, BackendFile)
		return
	}

	switch config.Backend {
	case BackendFile:
		if config.MaxSize > 0 || config.TTL > 0 {
			result.addWarning("cache", config.Backend,
				"max_size and ttl only apply to the memory backend")
		}
	case BackendNone:
		if config.Prefix != "" {
			result.addWarning("cache.prefix", config.Prefix, "prefix is ignored without a cache backend")
		}
	}
}

func validateDataDetails(config *DataConfig, result *ValidationResult) {
	if config.File != "" {
		if err := validatePath(config.File); err != nil {
			result.addError("data.file", config.File, err.Error())
		} else if _, err := os.Stat(config.File); err != nil {
			result.addError("data.file", config.File, "data file does not exist")
		} else if ext := strings.ToLower(filepath.Ext(config.File)); ext != ".json" &&
			ext != ".yaml" && ext != ".yml" && ext != ".hcl" {
			result.addError("data.file", config.File, fmt.Sprintf("unsupported data format %q", ext),
				"Use a .json, .yaml, .yml or .hcl file")
		}
	}
	if config.File != "" && config.Inline != "" {
		result.addWarning("data", config.Inline, "inline data is merged over the data file")
	}
}
