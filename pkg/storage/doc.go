// Package storage writes exported review files and run summaries.
//
// The Manager renders artifact names from a pattern such as
// "reviews_{app}_{date}.{ext}" and writes every file through a temporary file
// followed by a rename, so a crash or cancelled run never leaves a truncated
// export behind. The output directory is created by the first Save.
//
// Usage:
//
//	manager := storage.NewManager("out", storage.DefaultFileNamePattern)
//
//	name := manager.FileName("com.example.app", time.Now(), "csv")
//	path, err := manager.Save(name, func(w io.Writer) error {
//	    return exporter.Export(w, reviews)
//	})
package storage
