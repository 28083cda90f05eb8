/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"fmt"

	"flowsketch/internal/config"
)

// Open returns the store selected by cfg.Driver. password replaces the
// ${PASSWORD} placeholder in postgres DSNs.
func Open(ctx context.Context, cfg config.StorageConfig, password string) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.Dir)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Dir)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.ResolvedDSN(password))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
