// Package inp reads and writes the text input files consumed by the EFDC
// hydrodynamic/water-quality executable.
//
// Two master files (efdc.inp, wq3dwc.inp) are card driven: a static Catalog
// lists every card with its column names, and driver fields in early cards
// decide how many rows later cards occupy. The flow series (qser.inp) and
// point-source concentration series (wqpsc.inp) files are self-describing
// repeating blocks. conc_adjust.inp holds adjustment matrices whose row count
// comes from efdc.inp, so files are parsed through Resolve, a bounded
// work-list over declared cross-file dependencies.
//
// Every parser returns a File: an ordered sequence of Records which
// serializes back to the original text, modulo interior whitespace and the
// trailing newline. The package does no I/O and holds no mutable state, so
// parsing and rendering are safe from any number of goroutines.
package inp
