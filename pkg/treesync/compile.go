package treesync

// compile replaces each unprotected source module of the destination file set
// with its compiled artifact. The first failure aborts.
func (s *syncer) compile() error {
	compiled := 0
	for _, path := range sortedKeys(s.files) {
		if s.protect.Match(path) || !s.opts.Compiler.Handles(path) {
			continue
		}

		artifact := s.opts.Compiler.Artifact(path)
		err := s.apply(Action{Phase: PhaseCompile, Op: OpCompile, Path: path, Target: artifact}, func() error {
			return s.opts.Compiler.Compile(path)
		})
		if err != nil {
			return err
		}

		err = s.apply(Action{Phase: PhaseCompile, Op: OpRemove, Path: path}, func() error {
			return s.fs.Remove(path)
		})
		if err != nil {
			return err
		}

		delete(s.files, path)
		s.files[artifact] = true
		compiled++
	}

	s.logger.Info().Int("compiled", compiled).Msg("Compiled destination")
	return nil
}
