// seed genera un script SQL idempotente con el catálogo de productos a partir del CSV
// exportado por el sistema anterior (ISO-8859-1, separado por ';').
//
// Uso: go run ./cmd/seed -company <id> [-utf8] [-delim ,] [-out archivo.sql] catalogo.csv
// Por defecto escribe internal/infrastructure/postgres/seed/catalog.sql.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	companyID := flag.String("company", "", "company_id de los productos (obligatorio)")
	utf8 := flag.Bool("utf8", false, "el CSV ya está en UTF-8")
	delim := flag.String("delim", ";", "separador de columnas")
	outPath := flag.String("out", "", "ruta del script de salida")
	flag.Parse()

	if *companyID == "" || flag.NArg() != 1 || len([]rune(*delim)) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, skipped, err := readCatalog(f, readOptions{Latin1: !*utf8, Delimiter: []rune(*delim)[0]})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "omitida %s\n", s)
	}

	if *outPath == "" {
		*outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seed", "catalog.sql")
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSeedSQL(out, *companyID, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos (%d omitidos)\n", *outPath, len(rows), len(skipped))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
