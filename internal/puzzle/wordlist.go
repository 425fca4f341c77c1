package puzzle

// DefaultPool is the built-in Portuguese dictionary slice used when no
// external word source is configured. Clues are short definitions.
var DefaultPool = []WordEntry{
	{Word: "casa", Clue: "Lugar onde se mora"},
	{Word: "amor", Clue: "Sentimento de afeto profundo"},
	{Word: "tempo", Clue: "Duração dos acontecimentos"},
	{Word: "praia", Clue: "Faixa de areia junto ao mar"},
	{Word: "livro", Clue: "Conjunto de páginas encadernadas"},
	{Word: "sol", Clue: "Estrela do nosso sistema"},
	{Word: "mar", Clue: "Grande massa de água salgada"},
	{Word: "flor", Clue: "Parte colorida da planta"},
	{Word: "noite", Clue: "Período sem luz solar"},
	{Word: "cidade", Clue: "Aglomerado urbano"},
	{Word: "estrada", Clue: "Via de ligação entre lugares"},
	{Word: "janela", Clue: "Abertura na parede para luz"},
	{Word: "música", Clue: "Arte dos sons"},
	{Word: "viagem", Clue: "Deslocamento para outro lugar"},
	{Word: "amigo", Clue: "Pessoa com quem se tem amizade"},
	{Word: "escola", Clue: "Instituição de ensino"},
	{Word: "futebol", Clue: "Esporte com bola e duas balizas"},
	{Word: "cachorro", Clue: "Melhor amigo do homem"},
	{Word: "montanha", Clue: "Grande elevação de terreno"},
	{Word: "caminho", Clue: "Percurso entre dois pontos"},
	{Word: "segredo", Clue: "Aquilo que não se conta"},
	{Word: "coração", Clue: "Órgão que bombeia o sangue"},
	{Word: "palavra", Clue: "Unidade da língua com sentido"},
	{Word: "saudade", Clue: "Falta sentida de algo ou alguém"},
	{Word: "criança", Clue: "Ser humano em fase inicial"},
	{Word: "trabalho", Clue: "Atividade produtiva"},
	{Word: "floresta", Clue: "Grande área coberta de árvores"},
	{Word: "memória", Clue: "Capacidade de lembrar"},
	{Word: "estrela", Clue: "Ponto brilhante no céu noturno"},
	{Word: "energia", Clue: "Capacidade de realizar trabalho"},
	{Word: "cozinha", Clue: "Cômodo onde se prepara comida"},
	{Word: "inverno", Clue: "Estação mais fria do ano"},
	{Word: "verão", Clue: "Estação mais quente do ano"},
	{Word: "chuva", Clue: "Água que cai das nuvens"},
	{Word: "vento", Clue: "Ar em movimento"},
	{Word: "fogo", Clue: "Combustão com chama"},
	{Word: "terra", Clue: "Planeta em que vivemos"},
	{Word: "rio", Clue: "Curso natural de água doce"},
	{Word: "ponte", Clue: "Construção que cruza um rio"},
	{Word: "barco", Clue: "Embarcação"},
	{Word: "peixe", Clue: "Animal aquático com guelras"},
	{Word: "pássaro", Clue: "Animal que voa e canta"},
	{Word: "árvore", Clue: "Planta de tronco lenhoso"},
	{Word: "fruta", Clue: "Alimento doce que vem da planta"},
	{Word: "banana", Clue: "Fruta amarela alongada"},
	{Word: "laranja", Clue: "Fruta cítrica e cor"},
	{Word: "abacaxi", Clue: "Fruta tropical de coroa"},
	{Word: "queijo", Clue: "Derivado do leite"},
	{Word: "pão", Clue: "Alimento de farinha assada"},
	{Word: "café", Clue: "Bebida escura estimulante"},
	{Word: "leite", Clue: "Líquido branco e nutritivo"},
	{Word: "açúcar", Clue: "Adoçante comum"},
	{Word: "sal", Clue: "Tempero básico"},
	{Word: "mesa", Clue: "Móvel de tampo plano"},
	{Word: "cadeira", Clue: "Móvel para sentar"},
	{Word: "porta", Clue: "Abertura de passagem"},
	{Word: "parede", Clue: "Divisória vertical"},
	{Word: "telhado", Clue: "Cobertura da casa"},
	{Word: "jardim", Clue: "Área cultivada com plantas"},
	{Word: "semente", Clue: "Origem de uma planta"},
	{Word: "raiz", Clue: "Parte subterrânea da planta"},
	{Word: "folha", Clue: "Parte verde da planta"},
	{Word: "pedra", Clue: "Fragmento de rocha"},
	{Word: "areia", Clue: "Grãos finos de rocha"},
	{Word: "ilha", Clue: "Terra cercada de água"},
	{Word: "farol", Clue: "Torre com luz para navegantes"},
	{Word: "navio", Clue: "Grande embarcação"},
	{Word: "aeroporto", Clue: "Local de pouso de aviões"},
	{Word: "bicicleta", Clue: "Veículo de duas rodas a pedal"},
	{Word: "relógio", Clue: "Instrumento que marca as horas"},
	{Word: "espelho", Clue: "Superfície que reflete imagens"},
	{Word: "sombra", Clue: "Ausência de luz projetada"},
	{Word: "silêncio", Clue: "Ausência de som"},
	{Word: "barulho", Clue: "Som forte e desordenado"},
	{Word: "festa", Clue: "Reunião para comemorar"},
	{Word: "bolo", Clue: "Doce assado de aniversário"},
	{Word: "presente", Clue: "Aquilo que se dá a alguém"},
	{Word: "história", Clue: "Narrativa de acontecimentos"},
	{Word: "mistério", Clue: "Aquilo que não se explica"},
	{Word: "tesouro", Clue: "Riqueza escondida"},
	{Word: "mapa", Clue: "Representação de um território"},
	{Word: "chave", Clue: "Objeto que abre fechaduras"},
	{Word: "caixa", Clue: "Recipiente com tampa"},
	{Word: "papel", Clue: "Material para escrever"},
	{Word: "lápis", Clue: "Instrumento de escrita com grafite"},
	{Word: "tinta", Clue: "Líquido para colorir"},
	{Word: "quadro", Clue: "Obra pendurada na parede"},
	{Word: "teatro", Clue: "Casa de espetáculos"},
	{Word: "cinema", Clue: "Sala de exibição de filmes"},
	{Word: "dança", Clue: "Movimento ao som da música"},
	{Word: "esporte", Clue: "Atividade física competitiva"},
	{Word: "corrida", Clue: "Competição de velocidade"},
	{Word: "vitória", Clue: "Resultado de quem vence"},
	{Word: "derrota", Clue: "Resultado de quem perde"},
	{Word: "empate", Clue: "Resultado igual para os dois lados"},
	{Word: "equipe", Clue: "Grupo que joga junto"},
	{Word: "torneio", Clue: "Série de partidas eliminatórias"},
	{Word: "medalha", Clue: "Prêmio de metal"},
	{Word: "troféu", Clue: "Prêmio de campeão"},
}
