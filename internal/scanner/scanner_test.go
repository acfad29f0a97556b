package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/phptestgen/internal/model"
)

const userService = `<?php

declare(strict_types=1);

namespace App\Service;

use App\Contract\UserInterface;
use App\Repository\UserRepository as Repo;
use Psr\Log\{LoggerInterface, LogLevel as Level};
use function sprintf;

class UserService
{
    public function __construct(private Repo $repo, private LoggerInterface $logger)
    {
    }

    public function getUser(int $id): ?UserInterface
    {
        return $this->repo->find($id);
    }
}
`

func TestScanImports(t *testing.T) {
	table, err := ScanImports(context.Background(), []byte(userService))
	require.NoError(t, err)

	tests := []struct {
		alias string
		want  string
	}{
		{alias: "UserInterface", want: `App\Contract\UserInterface`},
		{alias: "repo", want: `App\Repository\UserRepository`},
		{alias: "LoggerInterface", want: `Psr\Log\LoggerInterface`},
		{alias: "Level", want: `Psr\Log\LogLevel`},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, ok := table.Lookup(tt.alias)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}

	_, ok := table.Lookup("sprintf")
	require.False(t, ok, "function imports are not class aliases")
	require.Len(t, table, 4)
}

func TestImportTableResolve(t *testing.T) {
	table := ImportTable{"contract": `App\Contract`}

	got, ok := table.Resolve(`Contract\UserInterface`)
	require.True(t, ok)
	require.Equal(t, `App\Contract\UserInterface`, got)

	_, ok = table.Resolve(`\Vendor\Thing`)
	require.False(t, ok)

	_, ok = table.Resolve("Unknown")
	require.False(t, ok)
}

func TestScanMethodNames(t *testing.T) {
	names, err := ScanMethodNames(context.Background(), []byte(userService))
	require.NoError(t, err)
	require.Equal(t, []string{"__construct", "getUser"}, names)
}

func TestScanClassNames(t *testing.T) {
	src := `<?php
namespace App\A {
    class First {}
}
namespace App\B {
    interface Second {}
    trait Third {}
}
`
	names, err := ScanClassNames(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Equal(t, []string{`App\A\First`, `App\B\Second`, `App\B\Third`}, names)
}

func TestClosingBrace(t *testing.T) {
	src := "<?php\nclass A\n{\n    public function a() {}\n}\n// trailing\n"
	offset, ok := ClosingBrace(context.Background(), []byte(src))
	require.True(t, ok)
	require.Equal(t, byte('}'), src[offset])
	require.Equal(t, "\n// trailing\n", src[offset+1:])

	_, ok = ClosingBrace(context.Background(), []byte("<?php\n$a = 1;\n"))
	require.False(t, ok)
}

func TestScannerCachesImports(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "src/UserService.php", []byte(userService), 0o644))

	s := New(fs)
	first, err := s.Imports(context.Background(), "src/UserService.php")
	require.NoError(t, err)

	require.NoError(t, fs.Remove("src/UserService.php"))
	second, err := s.Imports(context.Background(), "src/UserService.php")
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, err = s.Imports(context.Background(), "src/Missing.php")
	require.True(t, errors.Is(err, model.ErrFileNotExists))
}
