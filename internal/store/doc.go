// Package store provides the optional SQLite lookup journal.
//
// Every completed tracking lookup is recorded with its classified outcome.
// The journal backs the /health/stats endpoint and the stats CLI command;
// it is entirely optional and the server runs without it when no database
// path is configured.
//
// The journal is not a session store: MCP sessions are in-memory only and
// deliberately do not survive a process restart.
package store
