// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddlsync

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ddlsync/ddlsync/schemaerr"
)

func unknownReferenceError(table, refTable string) error {
	return schemaerr.New(schemaerr.UnknownReference, "ddlsync.Migrate",
		fmt.Errorf("table %q references unknown table %q", table, refTable))
}

// newReportID is split out so tests can be written against a fixed ID
// without needing to run the non-deterministic uuid generator.
var newReportID = uuid.New
