// Package project assembles parsed source files into a project and resolves
// definition names across files and imports.
package project
