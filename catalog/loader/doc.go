// Package loader reads and writes map datasets in their authoring formats.
//
// The loader package handles:
//   - Decoding datasets from JSON or YAML with the same constraints the model
//     constructors enforce
//   - Encoding datasets back to either format
//   - Reading the catalog manifest and building a registry from it
//   - Reloading a catalog from disk while readers keep using the previous one
//   - Publishing a JSON Schema for editors
//
// Catalog Layout:
//
// A catalog is a manifest plus one file per dataset. The manifest lists the
// datasets in registration order; file paths are relative to the manifest:
//
//	datasets:
//	  - game: game_icarus
//	    file: game_icarus/olympus.yaml
//	  - game: game_enshrouded
//	    file: game_enshrouded/embervale.yaml
//
// Usage:
//
//	reg, err := loader.LoadCatalog(os.DirFS("data"), loader.DefaultManifest)
//	if err != nil {
//		log.Fatal(err) // SchemaViolation or DuplicateKey: nothing is registered
//	}
//
//	// Single files pick their format from the extension
//	ds, err := loader.LoadFile("embervale.yaml")
//
// Markers whose category_slug matches no category do not stop loading. They
// are logged at warn level and left out of resolved views.
package loader
