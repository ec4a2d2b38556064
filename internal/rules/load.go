package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the mapping specs found in a directory.
type LoadResult struct {
	Specs     []*Spec
	CUEFiles  int
	YAMLFiles int
}

// FileCount returns the number of spec files read.
func (r *LoadResult) FileCount() int {
	return r.CUEFiles + r.YAMLFiles
}

// Lookup returns the spec named name.
func (r *LoadResult) Lookup(name string) (*Spec, bool) {
	for _, s := range r.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes shared by the loader and the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No spec files found
	ErrCodeLoadFailed  = "E004" // CUE or YAML load failed
	ErrCodeNotFound    = "E005" // Path or mapping not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File or store write error

	ErrCodeKind      = "E101" // Missing or unknown kind
	ErrCodeValues    = "E102" // No template statements or bad value
	ErrCodeNode      = "E103" // Bad node expression
	ErrCodePrefixes  = "E104" // Invalid or conflicting prefix
	ErrCodeGraph     = "E105" // Invalid graph IRI
	ErrCodeDuplicate = "E106" // Mapping defined twice
	ErrCodeField     = "E107" // Unknown field
)

// MapFieldToErrorCode maps a CompileError field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "kind":
		return ErrCodeKind
	case "values", "optional", "types", "filters", "source", "source_type":
		return ErrCodeValues
	case "node", "node.expr":
		return ErrCodeNode
	case "prefixes":
		return ErrCodePrefixes
	case "target_graph", "source_graph":
		return ErrCodeGraph
	case "cue", "yaml", "mapping":
		return ErrCodeLoadFailed
	default:
		if specFields[field] {
			return ErrCodeGeneric
		}
		return ErrCodeField
	}
}

// Load reads every .cue, .yaml and .yml file under dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
//
// CUE files form one package instance rooted at dir; YAML files are read
// individually.
func Load(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, yamlFiles, err := FindSpecFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE or YAML files found in %s", dir)}}
	}
	slog.Debug("spec files found", "dir", dir, "cue", len(cueFiles), "yaml", len(yamlFiles))

	result := &LoadResult{CUEFiles: len(cueFiles), YAMLFiles: len(yamlFiles)}
	seen := make(map[string]bool)
	add := func(spec *Spec) error {
		if seen[spec.Name] {
			return &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("mapping %q is defined more than once", spec.Name), Pos: spec.Pos}
		}
		seen[spec.Name] = true
		result.Specs = append(result.Specs, spec)
		return nil
	}

	if len(cueFiles) > 0 {
		value, loadErr := buildCUE(dir)
		if loadErr != nil {
			return nil, []error{loadErr}
		}
		mappings := value.LookupPath(cue.ParsePath("mapping"))
		if mappings.Exists() {
			iter, iterErr := mappings.Fields()
			if iterErr != nil {
				errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating mappings: %v", iterErr)})
				if mode == LoadModeFailFast {
					return result, errs
				}
			} else {
				for iter.Next() {
					spec, parseErr := ParseCUE(iter.Value())
					if parseErr == nil {
						parseErr = add(spec)
					}
					if parseErr != nil {
						errs = append(errs, convertCompileError(parseErr, "mapping."+iter.Label()))
						if mode == LoadModeFailFast {
							return result, errs
						}
					}
				}
			}
		}
	}

	for _, path := range yamlFiles {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, readErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		specs, parseErr := ParseYAML(data)
		if parseErr != nil {
			errs = append(errs, convertCompileError(parseErr, path))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		for _, spec := range specs {
			if addErr := add(spec); addErr != nil {
				errs = append(errs, convertCompileError(addErr, path))
				if mode == LoadModeFailFast {
					return result, errs
				}
			}
		}
	}

	if len(result.Specs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no mappings found in specs"})
	}

	slog.Debug("mappings loaded", "count", len(result.Specs), "errors", len(errs))
	return result, errs
}

func buildCUE(dir string) (cue.Value, *LoadError) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return value, nil
}

// FindSpecFiles walks dir and returns the CUE and YAML file paths.
func FindSpecFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
		return nil
	})
	return cueFiles, yamlFiles, err
}

// convertCompileError converts a parse error to a LoadError with position
// info.
func convertCompileError(err error, context string) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
