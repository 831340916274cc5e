// Package compilers provides extension handlers for non-JavaScript files.
// Each handler reads the file and sets module.exports to the decoded value;
// they are meant to be passed as ctxrequire.Options.Compilers.
package compilers
