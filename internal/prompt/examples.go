package prompt

// Worked length examples, one per tier. A concrete demonstration anchors
// the model to the target proportions far better than a numeric limit.

func lengthExample(targetLength int) string {
	switch {
	case targetLength <= 1200:
		return exampleShort
	case targetLength <= 2200:
		return exampleMedium
	default:
		return exampleLong
	}
}

const exampleShort = `WZORZEC DŁUGOŚCI (~1000 znaków) — Twój tekst musi mieć PODOBNĄ długość do poniższego:
═══════════════════════════════════════════════════════════════
<h1>Czym jest copywriting? Podstawy sztuki pisania tekstów</h1>
<p>Copywriting to sztuka tworzenia tekstów, które mają na celu przekonanie czytelnika do podjęcia konkretnego działania. Może to być zakup produktu, zapisanie się na newsletter czy pobranie aplikacji. Dobry copywriter potrafi połączyć kreatywność z wiedzą o psychologii konsumenta, tworząc treści, które nie tylko informują, ale przede wszystkim inspirują i motywują do działania.</p>
<h2>Gdzie stosuje się copywriting?</h2>
<p>Copywriting znajduje zastosowanie w niemal każdej formie komunikacji marketingowej. Spotykamy go w reklamach internetowych, opisach produktów w sklepach online, treściach na stronach firmowych oraz w kampaniach e-mail marketingowych. Każdy tekst sprzedażowy, który widzisz na co dzień w internecie, został stworzony właśnie przez copywritera.</p>
<h2>Dlaczego warto inwestować w dobre teksty?</h2>
<p>Profesjonalnie napisane treści potrafią znacząco zwiększyć konwersję i sprzedaż. Badania pokazują, że dobrze napisany opis produktu może podnieść współczynnik konwersji nawet o kilkadziesiąt procent. Inwestycja w copywriting zwraca się wielokrotnie poprzez lepsze wyniki sprzedażowe i budowanie zaufania wśród klientów.</p>
═══════════════════════════════════════════════════════════════
Powyższy wzorzec ma ~1000 znaków. Napisz tekst O TAKIEJ SAMEJ DŁUGOŚCI na podany temat.
Struktura: <h1> + 2 sekcje <h2> + 3 akapity <p> po 3-4 zdania. KRÓTKO I ZWIĘŹLE.`

const exampleMedium = `WZORZEC DŁUGOŚCI (~2000 znaków) — Twój tekst musi mieć PODOBNĄ długość do poniższego:
═══════════════════════════════════════════════════════════════
<h1>Czym jest copywriting? Kompletny przewodnik po sztuce pisania tekstów sprzedażowych</h1>
<h2>Definicja i podstawowe pojęcia copywritingu</h2>
<p>Copywriting to sztuka i nauka pisania tekstów, które mają na celu przekonanie czytelnika do podjęcia konkretnego działania. Może to być zakup produktu, zapisanie się na newsletter, pobranie aplikacji lub jakikolwiek inny cel biznesowy. Copywriter to specjalista, który tworzy zawartość marketingową dostosowaną do konkretnej grupy docelowej, wykorzystując psychologię konsumenta i techniki persuazji. Tekst napisany przez dobrego copywritera nie tylko informuje, ale przede wszystkim inspiruje i motywuje do działania.</p>
<p>Różnica między copywritingiem a zwykłym pisaniem polega na intencji i efektywności. Podczas gdy artykuł prasowy ma na celu poinformowanie czytelnika, copy ma konkretny cel biznesowy. Copywriter musi rozumieć potrzeby swojej grupy docelowej, znać konkurencję i wiedzieć, jak wykorzystać emocje do zwiększenia konwersji. Każde słowo w copywritingu jest wybierane świadomie, aby maksymalizować wpływ na czytelnika.</p>
<p>Copywriting pojawia się wszędzie wokół nas: w reklamach telewizyjnych, banerach internetowych, e-mailach marketingowych, opisach produktów na stronach internetowych oraz w postach na mediach społecznościowych. To umiejętność, która jest niezwykle cenna w dzisiejszym cyfrowym świecie, gdzie konkurencja o uwagę konsumenta jest ogromna.</p>
<h2>Kluczowe elementy efektywnego copywritingu</h2>
<p>Efektywny copywriting opiera się na kilku fundamentalnych elementach, które muszą być obecne w każdym tekście. Po pierwsze, musi być jasny i zrozumiały dla grupy docelowej, bez zbędnych zawiłości i trudnych słów. Po drugie, powinien zawierać mocne nagłówki, które przyciągają uwagę i zachęcają do dalszego czytania. Po trzecie, tekst musi być zorientowany na korzyści dla czytelnika, a nie na cechy produktu. Wreszcie, każdy dobry copy powinien zawierać wyraźne wezwanie do działania, które mówi czytelnikowi dokładnie, co powinien zrobić.</p>
<p>Praktyczne zastosowania copywritingu są nieograniczone i znajdują się w każdej gałęzi biznesu. E-commerce wykorzystuje copywriting w opisach produktów, aby zwiększyć sprzedaż. Agencje reklamowe tworzą copy na potrzeby kampanii multimedialnych. Firmy technologiczne używają copywritingu do wyjaśniania złożonych funkcji swoich produktów w prosty sposób. Niezależnie od branży, umiejętność pisania przekonujących tekstów jest zawsze poszukiwana i dobrze wynagradzana.</p>
═══════════════════════════════════════════════════════════════
Powyższy wzorzec ma ~2000 znaków. Napisz tekst O TAKIEJ SAMEJ DŁUGOŚCI na podany temat.
Struktura: <h1> + 2-3 sekcje <h2> + 5-6 akapitów <p> po 4-5 zdań.`

const exampleLong = `WZORZEC DŁUGOŚCI (~3000 znaków) — Twój tekst musi mieć PODOBNĄ długość do poniższego:
═══════════════════════════════════════════════════════════════
<h1>Czym jest copywriting? Kompletny przewodnik po sztuce pisania tekstów sprzedażowych</h1>
<h2>Definicja i podstawowe pojęcia copywritingu</h2>
<p>Copywriting to sztuka i nauka pisania tekstów, które mają na celu przekonanie czytelnika do podjęcia konkretnego działania. Może to być zakup produktu, zapisanie się na newsletter, pobranie aplikacji lub jakikolwiek inny cel biznesowy. Copywriter to specjalista, który tworzy zawartość marketingową dostosowaną do konkretnej grupy docelowej, wykorzystując psychologię konsumenta i techniki persuazji. Tekst napisany przez dobrego copywritera nie tylko informuje, ale przede wszystkim inspiruje i motywuje do działania.</p>
<p>Różnica między copywritingiem a zwykłym pisaniem polega na intencji i efektywności. Podczas gdy artykuł prasowy ma na celu poinformowanie czytelnika, copy ma konkretny cel biznesowy. Copywriter musi rozumieć potrzeby swojej grupy docelowej, znać konkurencję i wiedzieć, jak wykorzystać emocje do zwiększenia konwersji. Każde słowo w copywritingu jest wybierane świadomie, aby maksymalizować wpływ na czytelnika.</p>
<p>Copywriting pojawia się wszędzie wokół nas: w reklamach telewizyjnych, banerach internetowych, e-mailach marketingowych, opisach produktów na stronach internetowych oraz w postach na mediach społecznościowych. To umiejętność, która jest niezwykle cenna w dzisiejszym cyfrowym świecie, gdzie konkurencja o uwagę konsumenta jest ogromna. Dobrze napisany copy może być różnicą między sukcesem a porażką kampanii marketingowej.</p>
<h2>Kluczowe elementy efektywnego copywritingu</h2>
<p>Efektywny copywriting opiera się na kilku fundamentalnych elementach. Po pierwsze, musi być jasny i zrozumiały dla grupy docelowej, bez zbędnych zawiłości i trudnych słów. Po drugie, powinien zawierać mocne nagłówki, które przyciągają uwagę i zachęcają do dalszego czytania. Po trzecie, tekst musi być zorientowany na korzyści dla czytelnika, a nie na cechy produktu. Wreszcie, każdy dobry copy powinien zawierać wyraźne wezwanie do działania, które mówi czytelnikowi dokładnie, co powinien zrobić dalej.</p>
<h2>Praktyczne zastosowania i rodzaje copywritingu</h2>
<p>Praktyczne zastosowania copywritingu są nieograniczone i znajdują się w każdej gałęzi biznesu. E-commerce wykorzystuje copywriting w opisach produktów, aby zwiększyć sprzedaż. Agencje reklamowe tworzą copy na potrzeby kampanii multimedialnych. Firmy technologiczne używają copywritingu do wyjaśniania złożonych funkcji swoich produktów w prosty sposób. Influencerzy i twórcy treści stosują techniki copywriterskie do zwiększenia zaangażowania swoich odbiorców w mediach społecznościowych.</p>
<p>Wśród najpopularniejszych rodzajów copywritingu wyróżniamy: copywriting sprzedażowy (bezpośrednia sprzedaż produktów i usług), copywriting SEO (optymalizacja treści pod wyszukiwarki), copywriting UX (teksty interfejsów użytkownika), copywriting e-mailowy (kampanie mailingowe) oraz copywriting brandowy (budowanie wizerunku marki). Każdy z tych typów wymaga nieco innych umiejętności, ale wszystkie łączy jeden cel — skuteczna komunikacja z odbiorcą.</p>
<h2>Jak zostać copywriterem?</h2>
<p>Aby zostać dobrym copywriterem, należy ciągle się uczyć i doskonalić swoje umiejętności. Warto czytać przykłady udanych kampanii, analizować, co sprawia, że teksty działają, i eksperymentować z różnymi podejściami. Copywriting to umiejętność, którą można rozwijać poprzez praktykę, czytanie książek branżowych i udział w szkoleniach. Najważniejsze to pisać regularnie, testować różne style i zbierać feedback od czytelników, bo to jedyna droga do mistrzostwa w tej dziedzinie.</p>
═══════════════════════════════════════════════════════════════
Powyższy wzorzec ma ~3000 znaków. Napisz tekst O TAKIEJ SAMEJ DŁUGOŚCI na podany temat.
Struktura: <h1> + 3-4 sekcje <h2> + 7-8 akapitów <p> po 4-5 zdań.`
