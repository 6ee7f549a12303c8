/*
Package ast contains the immutable value types describing parsed tree definitions.

A source file yields an ast.File: a set of named tree definitions (ast.Tree) and the
imports it declares. The body of every definition is a list of calls. A call is one of:

  - Invocation: a call to a named definition, e.g. `say_hi(name = "bob")`.
  - HoInvocation: a call received as an argument from an enclosing invocation, e.g. `op(..)`.
  - Lambda: an anonymous flow block, e.g. `fallback { a() b() }`.
  - Decorator: a single-child wrapper, e.g. `retry(3) a()`.

The package is free of I/O; parsers live in internal/compiler and resolution lives in pkg/project.
*/
package ast
